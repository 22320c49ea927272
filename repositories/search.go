package repositories

import (
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
)

type SortField string

const (
	SortByDateStart SortField = "dateStart"
	SortByPrizePool SortField = "prizePool"
	SortByCreatedAt SortField = "createdAt"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByDateStart, SortByPrizePool, SortByCreatedAt:
		return true
	}
	return false
}

func (f SortField) column() string {
	switch f {
	case SortByDateStart:
		return "date_start"
	case SortByPrizePool:
		return "prize_pool"
	default:
		return "created_at"
	}
}

// Range is an inclusive numeric bound; a nil end is open.
type Range struct {
	Min *float64
	Max *float64
}

func (r Range) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// SearchQuery is the fully composed, already validated discovery query. All
// predicates are AND-combined.
type SearchQuery struct {
	SportTypes  []models.SportType
	SkillLevels []models.SkillLevel
	PrizePool   Range
	EntryFee    Range
	Title       string

	// When WindowStart/WindowEnd are set the tournament interval must overlap
	// them; otherwise StartsAfter, if set, bounds dateStart from below.
	WindowStart *time.Time
	WindowEnd   *time.Time
	StartsAfter *time.Time

	// CandidateIDs restricts results to a spatial match. nil means no
	// spatial restriction; an empty set matches nothing.
	CandidateIDs geo.IDSet

	OnlyPublic bool

	SortBy   SortField
	SortDesc bool
	Limit    int
	Offset   int
}

// Matches evaluates the query predicates against one row.
func (q SearchQuery) Matches(t *models.Tournament) bool {
	if q.OnlyPublic && !(t.IsActive && t.IsApproved) {
		return false
	}
	if len(q.SportTypes) > 0 && !containsValue(q.SportTypes, t.SportType) {
		return false
	}
	if len(q.SkillLevels) > 0 && (t.SkillLevel == nil || !containsValue(q.SkillLevels, *t.SkillLevel)) {
		return false
	}
	if !q.PrizePool.contains(t.PrizePool) || !q.EntryFee.contains(t.EntryFee) {
		return false
	}
	if q.Title != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(q.Title)) {
		return false
	}
	if q.WindowStart != nil && q.WindowEnd != nil {
		if t.DateStart.After(*q.WindowEnd) || t.DateEnd.Before(*q.WindowStart) {
			return false
		}
	} else if q.StartsAfter != nil && !t.DateStart.After(*q.StartsAfter) {
		return false
	}
	if q.CandidateIDs != nil && !q.CandidateIDs.Has(t.ID) {
		return false
	}
	return true
}

// sortTournaments orders rows by the query's sort key with the id as a tie
// breaker, matching the ORDER BY of the SQL implementation.
func (q SearchQuery) sortTournaments(rows []models.Tournament) {
	compare := func(a, b *models.Tournament) int {
		switch q.SortBy {
		case SortByDateStart:
			return a.DateStart.Compare(b.DateStart)
		case SortByPrizePool:
			switch {
			case a.PrizePool < b.PrizePool:
				return -1
			case a.PrizePool > b.PrizePool:
				return 1
			}
			return 0
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(&rows[i], &rows[j])
		if c == 0 {
			c = strings.Compare(rows[i].ID, rows[j].ID)
		}
		if q.SortDesc {
			return c > 0
		}
		return c < 0
	})
}

func containsValue[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
