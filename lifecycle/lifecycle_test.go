package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  Status
	}{
		{"before start", now.Add(time.Hour), now.Add(2 * time.Hour), StatusUpcoming},
		{"start equals now", now, now.Add(time.Hour), StatusOngoing},
		{"in progress", now.Add(-time.Hour), now.Add(time.Hour), StatusOngoing},
		{"end equals now", now.Add(-time.Hour), now, StatusFinished},
		{"after end", now.Add(-2 * time.Hour), now.Add(-time.Hour), StatusFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(now, tt.start, tt.end))
		})
	}
}

func TestDeriveRole(t *testing.T) {
	tests := []struct {
		name         string
		creator      string
		participants []string
		viewer       string
		want         Role
	}{
		{"anonymous", "org", []string{"a"}, "", RoleNone},
		{"creator", "org", nil, "org", RoleOrganizer},
		{"creator also listed as participant", "org", []string{"a", "org"}, "org", RoleOrganizer},
		{"participant", "org", []string{"a", "b"}, "b", RoleParticipant},
		{"stranger", "org", []string{"a"}, "z", RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveRole(tt.creator, tt.participants, tt.viewer))
		})
	}
}

func TestIsFinished(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsFinished(now, now.Add(time.Minute), true))
	assert.True(t, IsFinished(now, now, true))
	assert.True(t, IsFinished(now, now.Add(-time.Minute), true))
	assert.True(t, IsFinished(now, now.Add(time.Hour), false))
}

func TestMergeMine(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	created := []Entry[string]{
		{TournamentID: "t1", RelevantDate: base, Role: RoleOrganizer, Item: "created-t1"},
		{TournamentID: "t3", RelevantDate: base.Add(3 * time.Hour), Role: RoleOrganizer, Item: "created-t3"},
	}
	participated := []Entry[string]{
		{TournamentID: "t1", RelevantDate: base.Add(10 * time.Hour), Role: RoleParticipant, Item: "joined-t1"},
		{TournamentID: "t2", RelevantDate: base.Add(time.Hour), Role: RoleParticipant, Item: "joined-t2"},
	}

	got := MergeMine(created, participated)

	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.Item)
	}
	assert.Equal(t, []string{"created-t3", "joined-t2", "created-t1"}, ids)
}

func TestMergeMineEmpty(t *testing.T) {
	assert.Empty(t, MergeMine[int](nil, nil))
}
