package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/metrics"
	"github.com/Dosada05/tournament-finder/models"
	"github.com/Dosada05/tournament-finder/repositories"
	"go.opentelemetry.io/otel/trace/noop"
)

type FakeImageResolver struct {
	ResolveFunc func(ctx context.Context, handles []string) ([]models.Image, error)
	calls       [][]string
}

func (f *FakeImageResolver) Resolve(ctx context.Context, handles []string) ([]models.Image, error) {
	f.calls = append(f.calls, handles)
	if f.ResolveFunc != nil {
		return f.ResolveFunc(ctx, handles)
	}
	out := make([]models.Image, 0, len(handles))
	for _, h := range handles {
		out = append(out, models.Image{
			PublicID:  h,
			URL:       "http://media.test/" + h,
			SecureURL: "https://media.test/" + h,
			CreatedAt: testNow,
		})
	}
	return out, nil
}

type FakeLocator struct {
	LocateFunc func(ctx context.Context, ip string) (*geo.Point, error)
}

func (f *FakeLocator) Locate(ctx context.Context, ip string) (*geo.Point, error) {
	if f.LocateFunc != nil {
		return f.LocateFunc(ctx, ip)
	}
	return nil, nil
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc     *tournamentService
	store   repositories.Store
	images  *FakeImageResolver
	locator *FakeLocator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	images := &FakeImageResolver{}
	locator := &FakeLocator{}
	svc := NewTournamentService(
		store,
		images,
		locator,
		TournamentServiceConfig{AutoApprove: true},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.NoOp{},
		noop.NewTracerProvider().Tracer("test"),
	).(*tournamentService)
	svc.now = func() time.Time { return testNow }
	return &testEnv{svc: svc, store: store, images: images, locator: locator}
}

func validInput(mutate ...func(*CreateTournamentInput)) CreateTournamentInput {
	skill := models.SkillIntermediate
	in := CreateTournamentInput{
		Title:           "Spring Open",
		Description:     "Five-a-side football",
		SportType:       models.SportFootball,
		SkillLevel:      &skill,
		DateStart:       testNow.Add(24 * time.Hour),
		DateEnd:         testNow.Add(48 * time.Hour),
		EntryFee:        10,
		PrizePool:       500,
		MaxParticipants: 2,
		Location:        "Park 1",
		City:            "Philadelphia",
		GeoCoordinates:  models.GeoCoordinates{Latitude: 40.0, Longitude: -75.0},
		Images:          []ImageHandle{{PublicID: "img-1"}, {PublicID: "img-2"}},
	}
	for _, m := range mutate {
		m(&in)
	}
	return in
}

func (e *testEnv) create(t *testing.T, organizerID string, mutate ...func(*CreateTournamentInput)) *TournamentDetail {
	t.Helper()
	d, err := e.svc.Create(context.Background(), organizerID, validInput(mutate...))
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	return d
}
