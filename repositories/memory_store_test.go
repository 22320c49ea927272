package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTournament(id string, mutate ...func(*models.Tournament)) *models.Tournament {
	t := &models.Tournament{
		ID:              id,
		CreatedBy:       "organizer-1",
		Title:           "Tournament " + id,
		Description:     "desc",
		SportType:       models.SportFootball,
		DateStart:       baseTime.Add(48 * time.Hour),
		DateEnd:         baseTime.Add(72 * time.Hour),
		MaxParticipants: 2,
		Location:        "Main street 1",
		City:            "Berlin",
		Latitude:        52.52,
		Longitude:       13.405,
		IsActive:        true,
		IsApproved:      true,
		CreatedAt:       baseTime,
		UpdatedAt:       baseTime,
	}
	for _, m := range mutate {
		m(t)
	}
	return t
}

func TestMemoryStore_InTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Tournaments().Create(ctx, newTournament("t1")))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(ctx context.Context, tx Store) error {
		require.NoError(t, tx.Participants().Insert(ctx, &models.Participation{TournamentID: "t1", UserID: "u1", JoinedAt: baseTime}, 2))
		require.NoError(t, tx.Geo().Upsert(ctx, "t1", geo.Point{Lat: 1, Lng: 1}))
		require.NoError(t, tx.Tournaments().Delete(ctx, "t1"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Tournaments().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	n, err := store.Participants().Count(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)

	found, err := store.Geo().FindWithinRadius(ctx, geo.Point{Lat: 1, Lng: 1}, 1)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemoryStore_InTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.InTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Tournaments().Create(ctx, newTournament("t1")); err != nil {
			return err
		}
		return tx.Images().InsertMany(ctx, "t1", []models.Image{{PublicID: "a"}, {PublicID: "a"}, {PublicID: "b"}})
	})
	require.NoError(t, err)

	images, err := store.Images().ListByTournaments(ctx, []string{"t1"})
	require.NoError(t, err)
	require.Len(t, images["t1"], 2)
	assert.Equal(t, "t1", images["t1"][0].TournamentID)
}

func TestMemoryParticipants_Insert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Tournaments().Create(ctx, newTournament("t1")))
	repo := store.Participants()

	require.NoError(t, repo.Insert(ctx, &models.Participation{TournamentID: "t1", UserID: "u1"}, 2))
	assert.ErrorIs(t, repo.Insert(ctx, &models.Participation{TournamentID: "t1", UserID: "u1"}, 2), ErrParticipantConflict)
	require.NoError(t, repo.Insert(ctx, &models.Participation{TournamentID: "t1", UserID: "u2"}, 2))
	assert.ErrorIs(t, repo.Insert(ctx, &models.Participation{TournamentID: "t1", UserID: "u3"}, 2), ErrCapacityReached)
	assert.ErrorIs(t, repo.Insert(ctx, &models.Participation{TournamentID: "missing", UserID: "u1"}, 2), ErrTournamentNotFound)

	require.NoError(t, repo.Delete(ctx, "t1", "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "t1", "u1"), ErrParticipantNotFound)

	mine, err := repo.ListByUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "t1", mine[0].TournamentID)
}

func TestMemoryParticipants_ConcurrentInsertRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Tournaments().Create(ctx, newTournament("t1", func(t *models.Tournament) { t.MaxParticipants = 5 })))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.InTx(ctx, func(ctx context.Context, tx Store) error {
				tour, err := tx.Tournaments().GetForUpdate(ctx, "t1")
				if err != nil {
					return err
				}
				return tx.Participants().Insert(ctx, &models.Participation{TournamentID: "t1", UserID: fmt.Sprintf("u%d", i)}, tour.MaxParticipants)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrCapacityReached)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	n, err := store.Participants().Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestMemoryTournaments_UpdateKeepsOwnershipAndFlags(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Tournaments().Create(ctx, newTournament("t1")))

	patched := newTournament("t1", func(t *models.Tournament) {
		t.Title = "Renamed"
		t.CreatedBy = "someone-else"
		t.IsActive = false
	})
	require.NoError(t, store.Tournaments().Update(ctx, patched))

	got, err := store.Tournaments().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "organizer-1", got.CreatedBy)
	assert.True(t, got.IsActive)

	require.NoError(t, store.Tournaments().UpdateActive(ctx, "t1", false, baseTime.Add(time.Hour)))
	got, err = store.Tournaments().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, store.Tournaments().Update(ctx, newTournament("missing")), ErrTournamentNotFound)
}

func TestMemoryTournaments_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	beginner := models.SkillBeginner

	rows := []*models.Tournament{
		newTournament("a", func(t *models.Tournament) { t.PrizePool = 100; t.Title = "Summer Cup" }),
		newTournament("b", func(t *models.Tournament) { t.PrizePool = 300; t.SkillLevel = &beginner }),
		newTournament("c", func(t *models.Tournament) { t.PrizePool = 200; t.SportType = models.SportChess }),
		newTournament("d", func(t *models.Tournament) { t.PrizePool = 200; t.IsApproved = false }),
		newTournament("e", func(t *models.Tournament) { t.PrizePool = 200 }),
	}
	for _, r := range rows {
		require.NoError(t, store.Tournaments().Create(ctx, r))
	}

	ids := func(ts []models.Tournament) []string {
		out := make([]string, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}
	minPrize := 150.0

	tests := []struct {
		name      string
		query     SearchQuery
		wantIDs   []string
		wantTotal int
	}{
		{
			name:      "public only sorted by prize desc with id tie break",
			query:     SearchQuery{OnlyPublic: true, SortBy: SortByPrizePool, SortDesc: true},
			wantIDs:   []string{"b", "e", "c", "a"},
			wantTotal: 4,
		},
		{
			name:      "paging reports full total",
			query:     SearchQuery{OnlyPublic: true, SortBy: SortByPrizePool, Limit: 2, Offset: 2},
			wantIDs:   []string{"e", "b"},
			wantTotal: 4,
		},
		{
			name:      "negative offset clamps to first page",
			query:     SearchQuery{OnlyPublic: true, SortBy: SortByPrizePool, Limit: 2, Offset: -10},
			wantIDs:   []string{"a", "c"},
			wantTotal: 4,
		},
		{
			name:      "offset past end",
			query:     SearchQuery{OnlyPublic: true, SortBy: SortByPrizePool, Limit: 2, Offset: 10},
			wantIDs:   []string{},
			wantTotal: 4,
		},
		{
			name:      "sport and prize range",
			query:     SearchQuery{OnlyPublic: true, SportTypes: []models.SportType{models.SportFootball}, PrizePool: Range{Min: &minPrize}, SortBy: SortByPrizePool},
			wantIDs:   []string{"e", "b"},
			wantTotal: 2,
		},
		{
			name:      "skill level excludes unset",
			query:     SearchQuery{SkillLevels: []models.SkillLevel{models.SkillBeginner}},
			wantIDs:   []string{"b"},
			wantTotal: 1,
		},
		{
			name:      "title is case insensitive substring",
			query:     SearchQuery{Title: "summer"},
			wantIDs:   []string{"a"},
			wantTotal: 1,
		},
		{
			name:      "empty candidate set matches nothing",
			query:     SearchQuery{CandidateIDs: geo.NewIDSet()},
			wantIDs:   []string{},
			wantTotal: 0,
		},
		{
			name:      "candidate set restricts",
			query:     SearchQuery{CandidateIDs: geo.NewIDSet("c", "d"), SortBy: SortByCreatedAt},
			wantIDs:   []string{"c", "d"},
			wantTotal: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := store.Tournaments().Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(got))
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestSearchQuery_DateWindow(t *testing.T) {
	tour := newTournament("t1")
	dayStart := tour.DateEnd.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
	before := tour.DateStart.Add(-time.Hour)
	after := tour.DateEnd.Add(time.Hour)

	tests := []struct {
		name  string
		query SearchQuery
		want  bool
	}{
		{"overlapping day", SearchQuery{WindowStart: &dayStart, WindowEnd: &dayEnd}, true},
		{"window after end", SearchQuery{WindowStart: &after, WindowEnd: &after}, false},
		{"starts after reference", SearchQuery{StartsAfter: &before}, true},
		{"already started", SearchQuery{StartsAfter: &tour.DateStart}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Matches(tour))
		})
	}
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, `%cup%`, containsPattern("cup"))
	assert.Equal(t, `%100\% \_x\\%`, containsPattern(`100% _x\`))
}
