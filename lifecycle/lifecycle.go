// Package lifecycle derives the per-request view of a tournament: its
// temporal status and the viewer's role. Nothing here is persisted.
package lifecycle

import (
	"sort"
	"time"
)

type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusOngoing  Status = "ONGOING"
	StatusFinished Status = "FINISHED"
)

type Role string

const (
	RoleOrganizer   Role = "ORGANIZER"
	RoleParticipant Role = "PARTICIPANT"
	RoleNone        Role = "NONE"
)

// DeriveStatus classifies now against [start, end). The start instant is
// already Ongoing and the end instant is already Finished.
func DeriveStatus(now, start, end time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(end):
		return StatusOngoing
	default:
		return StatusFinished
	}
}

// DeriveRole reports how viewerID relates to a tournament. An empty viewerID
// is anonymous. The creator is Organizer even if a participation row exists.
func DeriveRole(creatorID string, participantIDs []string, viewerID string) Role {
	if viewerID == "" {
		return RoleNone
	}
	if creatorID == viewerID {
		return RoleOrganizer
	}
	for _, id := range participantIDs {
		if id == viewerID {
			return RoleParticipant
		}
	}
	return RoleNone
}

// IsFinished is the bucket rule of the "my tournaments" view: a tournament
// leaves the active bucket once it ended or the organizer deactivated it.
func IsFinished(now, end time.Time, isActive bool) bool {
	return !end.After(now) || !isActive
}

// Entry is one row of the "my tournaments" view before projection.
type Entry[T any] struct {
	TournamentID string
	RelevantDate time.Time
	Role         Role
	Item         T
}

// MergeMine joins the created and participated sets. Duplicates keep the
// created entry, and the result is ordered by RelevantDate, newest first.
func MergeMine[T any](created, participated []Entry[T]) []Entry[T] {
	seen := make(map[string]struct{}, len(created)+len(participated))
	merged := make([]Entry[T], 0, len(created)+len(participated))

	for _, e := range created {
		if _, dup := seen[e.TournamentID]; dup {
			continue
		}
		seen[e.TournamentID] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range participated {
		if _, dup := seen[e.TournamentID]; dup {
			continue
		}
		seen[e.TournamentID] = struct{}{}
		merged = append(merged, e)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevantDate.After(merged[j].RelevantDate)
	})
	return merged
}
