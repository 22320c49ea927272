//go:build integration

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-finder/db"
	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgis/postgis:16-3.4-alpine",
		postgres.WithDatabase("tournaments"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if pgContainer != nil {
		t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })
	}
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn, err := db.Connect(ctx, connStr, db.DefaultPool, 10*time.Second, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(ctx, conn, logger))
	return conn
}

func TestPostgresStore(t *testing.T) {
	conn := setupPostgres(t)
	store := NewPostgresStore(conn)
	ctx := context.Background()

	near := newTournament("near", func(t *models.Tournament) { t.Latitude, t.Longitude = 40.0, -75.0 })
	far := newTournament("far", func(t *models.Tournament) { t.Latitude, t.Longitude = 41.0, -75.0; t.PrizePool = 500 })
	for _, tour := range []*models.Tournament{near, far} {
		tour := tour
		require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Store) error {
			if err := tx.Tournaments().Create(ctx, tour); err != nil {
				return err
			}
			return tx.Geo().Upsert(ctx, tour.ID, geo.Point{Lat: tour.Latitude, Lng: tour.Longitude})
		}))
	}

	t.Run("radius query", func(t *testing.T) {
		found, err := store.Geo().FindWithinRadius(ctx, geo.Point{Lat: 40.001, Lng: -75.001}, 5)
		require.NoError(t, err)
		assert.Equal(t, geo.NewIDSet("near"), found)
	})

	t.Run("search with candidates and paging", func(t *testing.T) {
		got, total, err := store.Tournaments().Search(ctx, SearchQuery{
			OnlyPublic: true,
			SortBy:     SortByPrizePool,
			SortDesc:   true,
			Limit:      1,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "far", got[0].ID)
		assert.Equal(t, 2, total)

		got, total, err = store.Tournaments().Search(ctx, SearchQuery{Limit: 10, Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 2, total)

		got, total, err = store.Tournaments().Search(ctx, SearchQuery{CandidateIDs: geo.NewIDSet("near"), Title: "near"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 1, total)
	})

	t.Run("concurrent registration respects capacity", func(t *testing.T) {
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := store.InTx(ctx, func(ctx context.Context, tx Store) error {
					tour, err := tx.Tournaments().GetForUpdate(ctx, "near")
					if err != nil {
						return err
					}
					return tx.Participants().Insert(ctx, &models.Participation{
						TournamentID: "near",
						UserID:       fmt.Sprintf("user-%d", i),
						JoinedAt:     time.Now().UTC(),
					}, tour.MaxParticipants)
				})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, near.MaxParticipants, succeeded)
		n, err := store.Participants().Count(ctx, "near")
		require.NoError(t, err)
		assert.Equal(t, near.MaxParticipants, n)

		err = store.Participants().Insert(ctx, &models.Participation{TournamentID: "near", UserID: "user-0", JoinedAt: time.Now()}, 100)
		if err != nil {
			assert.ErrorIs(t, err, ErrParticipantConflict)
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Store) error {
			if err := tx.Images().InsertMany(ctx, "far", []models.Image{{PublicID: "logo", URL: "http://x", SecureURL: "https://x", CreatedAt: time.Now()}}); err != nil {
				return err
			}
			return tx.Tournaments().Delete(ctx, "far")
		}))

		_, err := store.Tournaments().GetByID(ctx, "far")
		assert.ErrorIs(t, err, ErrTournamentNotFound)
		images, err := store.Images().ListByTournaments(ctx, []string{"far"})
		require.NoError(t, err)
		assert.Empty(t, images)
		found, err := store.Geo().FindWithinRadius(ctx, geo.Point{Lat: 41.0, Lng: -75.0}, 1)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestPostgresSearchMatchesMemory(t *testing.T) {
	conn := setupPostgres(t)
	ctx := context.Background()
	stores := map[string]Store{
		"postgres": NewPostgresStore(conn),
		"memory":   NewMemoryStore(),
	}

	beginner, advanced := models.SkillBeginner, models.SkillAdvanced
	rows := []*models.Tournament{
		newTournament("a", func(t *models.Tournament) { t.PrizePool = 100; t.Title = "Summer Cup" }),
		newTournament("b", func(t *models.Tournament) { t.PrizePool = 300; t.EntryFee = 20; t.SkillLevel = &beginner }),
		newTournament("c", func(t *models.Tournament) {
			t.SportType = models.SportChess
			t.PrizePool, t.EntryFee = 200, 5
			t.SkillLevel = &advanced
			t.DateStart, t.DateEnd = baseTime.Add(240*time.Hour), baseTime.Add(264*time.Hour)
		}),
		newTournament("d", func(t *models.Tournament) { t.PrizePool = 200; t.IsApproved = false }),
		newTournament("e", func(t *models.Tournament) {
			t.PrizePool, t.EntryFee = 200, 50
			t.SkillLevel = &beginner
			t.DateStart, t.DateEnd = baseTime.Add(-24*time.Hour), baseTime.Add(24*time.Hour)
		}),
		newTournament("f", func(t *models.Tournament) { t.SportType = models.SportTennis; t.IsActive = false }),
	}
	for i, r := range rows {
		r.CreatedAt = baseTime.Add(time.Duration(i) * time.Minute)
		for _, s := range stores {
			tour := *r
			require.NoError(t, s.Tournaments().Create(ctx, &tour))
		}
	}

	ptr := func(f float64) *float64 { return &f }
	windowStart, windowEnd := baseTime.Add(24*time.Hour), baseTime.Add(48*time.Hour)
	startsAfterA := baseTime.Add(48 * time.Hour)

	tests := []struct {
		name  string
		query SearchQuery
		want  []string
	}{
		{"public only", SearchQuery{OnlyPublic: true}, []string{"a", "b", "c", "e"}},
		{"sport any of", SearchQuery{SportTypes: []models.SportType{models.SportChess, models.SportTennis}}, []string{"c", "f"}},
		{"sport any of public", SearchQuery{OnlyPublic: true, SportTypes: []models.SportType{models.SportChess, models.SportTennis}}, []string{"c"}},
		{"skill any of", SearchQuery{SkillLevels: []models.SkillLevel{models.SkillBeginner, models.SkillAdvanced}}, []string{"b", "c", "e"}},
		{"entry fee range inclusive", SearchQuery{EntryFee: Range{Min: ptr(5), Max: ptr(20)}}, []string{"b", "c"}},
		{"prize range public", SearchQuery{OnlyPublic: true, PrizePool: Range{Min: ptr(150), Max: ptr(250)}}, []string{"c", "e"}},
		{"day window overlap with inclusive bounds", SearchQuery{OnlyPublic: true, WindowStart: &windowStart, WindowEnd: &windowEnd}, []string{"a", "b", "e"}},
		{"starts after reference", SearchQuery{OnlyPublic: true, StartsAfter: &baseTime}, []string{"a", "b", "c"}},
		{"starts strictly after", SearchQuery{OnlyPublic: true, StartsAfter: &startsAfterA}, []string{"c"}},
		{"window wins over starts after", SearchQuery{WindowStart: &windowStart, WindowEnd: &windowEnd, StartsAfter: &startsAfterA, SkillLevels: []models.SkillLevel{models.SkillBeginner}}, []string{"b", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.SortBy = SortByCreatedAt
			for name, s := range stores {
				got, total, err := s.Tournaments().Search(ctx, tt.query)
				require.NoError(t, err, name)
				ids := make([]string, 0, len(got))
				for _, g := range got {
					ids = append(ids, g.ID)
				}
				assert.Equal(t, tt.want, ids, name)
				assert.Equal(t, len(tt.want), total, name)
			}
		})
	}
}
