package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/lifecycle"
	"github.com/Dosada05/tournament-finder/metrics"
	"github.com/Dosada05/tournament-finder/models"
	"github.com/Dosada05/tournament-finder/repositories"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const serviceName = "TournamentService"

type TournamentService interface {
	Search(ctx context.Context, in SearchInput) (Page[TournamentSummary], error)
	GetByID(ctx context.Context, id, viewerID string) (*TournamentDetail, error)
	MyTournaments(ctx context.Context, viewerID string, finished bool) ([]TournamentSummary, error)
	Create(ctx context.Context, organizerID string, in CreateTournamentInput) (*TournamentDetail, error)
	Update(ctx context.Context, id, requesterID string, patch TournamentPatch) (*TournamentDetail, error)
	UpdateStatus(ctx context.Context, id, requesterID string, isActive bool) (*TournamentDetail, error)
	Delete(ctx context.Context, id, requesterID string) error
	Register(ctx context.Context, id, userID string) (*TournamentDetail, error)
	Leave(ctx context.Context, id, userID string) (*TournamentDetail, error)
	RemoveParticipant(ctx context.Context, id, requesterID, participantID string) (*TournamentDetail, error)
}

type TournamentServiceConfig struct {
	// Location is the reference timezone of the date filter.
	Location        *time.Location
	DefaultRadiusKm float64
	DefaultPageSize int
	MaxPageSize     int
	// AutoApprove marks new tournaments approved at creation.
	AutoApprove bool
}

func (c TournamentServiceConfig) withDefaults() TournamentServiceConfig {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.DefaultRadiusKm <= 0 {
		c.DefaultRadiusKm = 50
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 10
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	return c
}

type tournamentService struct {
	store   repositories.Store
	images  ImageResolver
	locator Locator
	cfg     TournamentServiceConfig
	logger  *slog.Logger
	metrics metrics.Recorder
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
}

// NewTournamentService wires the engine. locator may be nil, in which case
// discovery never falls back to an IP-derived position.
func NewTournamentService(
	store repositories.Store,
	images ImageResolver,
	locator Locator,
	cfg TournamentServiceConfig,
	logger *slog.Logger,
	recorder metrics.Recorder,
	tracer trace.Tracer,
) TournamentService {
	return &tournamentService{
		store:   store,
		images:  images,
		locator: locator,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: recorder,
		tracer:  tracer,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// withTelemetry wraps a service operation with a span, metrics and logging of
// the failure, if any.
func withTelemetry[T any](s *tournamentService, ctx context.Context, operation, identifier string, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, serviceName+"."+operation, trace.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("identifier", identifier),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operation, serviceName)
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operation, serviceName, time.Since(start))
	}()

	result, err := op(ctx)
	if err != nil {
		svcErr := AsError(err)
		s.metrics.RecordOperationFailure(ctx, operation, serviceName, svcErr.Code)
		span.RecordError(err)

		switch svcErr.Kind {
		case KindInternal, KindUpstream:
			s.logger.ErrorContext(ctx, "operation failed",
				slog.String("operation", operation),
				slog.String("identifier", identifier),
				slog.Any("error", err),
			)
		default:
			s.logger.DebugContext(ctx, "operation rejected",
				slog.String("operation", operation),
				slog.String("identifier", identifier),
				slog.String("code", svcErr.Code),
			)
		}
		return result, svcErr
	}
	return result, nil
}

// mapRepoError translates repository sentinels into service errors.
func mapRepoError(op string, err error) error {
	var svcErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrNotRegistered
	case errors.Is(err, repositories.ErrCapacityReached):
		return ErrMaxParticipants
	case errors.Is(err, repositories.ErrTournamentInvalid):
		return &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: "tournament violates a constraint", Err: err}
	case errors.Is(err, geo.ErrInvalidPoint):
		return newValidationError("geoCoordinates", "out of range")
	}
	return internalError(op, err)
}

// requireOrganizer is the single ownership guard of organizer-only mutations.
func requireOrganizer(t *models.Tournament, requesterID string) error {
	if requesterID == "" || t.CreatedBy != requesterID {
		return ErrForbiddenOperation
	}
	return nil
}

// loadRelations fills Images and Participants of every row in place.
func loadRelations(ctx context.Context, store repositories.Store, rows []models.Tournament) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	var (
		images       map[string][]models.Image
		participants map[string][]models.Participation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		images, err = store.Images().ListByTournaments(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = store.Participants().ListByTournaments(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load tournament relations: %w", err)
	}

	for i := range rows {
		rows[i].Images = images[rows[i].ID]
		rows[i].Participants = participants[rows[i].ID]
	}
	return nil
}

// detail loads the full aggregate of t and projects it for viewerID. It does
// not apply visibility rules.
func (s *tournamentService) detail(ctx context.Context, store repositories.Store, t *models.Tournament, viewerID string) (*TournamentDetail, error) {
	rows := []models.Tournament{*t}
	if err := loadRelations(ctx, store, rows); err != nil {
		return nil, internalError("load tournament", err)
	}
	agg := rows[0]

	userIDs := append([]string{agg.CreatedBy}, agg.ParticipantIDs()...)
	users, err := store.Users().GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, internalError("load users", err)
	}

	d := toDetail(&agg, users, viewerID, s.now())
	return &d, nil
}

// visible reports whether viewerID may see t outside its own management
// paths. Inactive or unapproved tournaments are reserved to their organizer.
func visible(t *models.Tournament, viewerID string) bool {
	return (t.IsActive && t.IsApproved) || (viewerID != "" && t.CreatedBy == viewerID)
}

func (s *tournamentService) GetByID(ctx context.Context, id, viewerID string) (*TournamentDetail, error) {
	return withTelemetry(s, ctx, "GetByID", id, func(ctx context.Context) (*TournamentDetail, error) {
		t, err := s.store.Tournaments().GetByID(ctx, id)
		if err != nil {
			return nil, mapRepoError("get tournament", err)
		}
		if !visible(t, viewerID) {
			return nil, ErrTournamentNotFound
		}
		return s.detail(ctx, s.store, t, viewerID)
	})
}

func (s *tournamentService) MyTournaments(ctx context.Context, viewerID string, finished bool) ([]TournamentSummary, error) {
	return withTelemetry(s, ctx, "MyTournaments", viewerID, func(ctx context.Context) ([]TournamentSummary, error) {
		if viewerID == "" {
			return nil, ErrNoTokenProvided
		}

		var (
			created        []models.Tournament
			participations []models.Participation
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			created, err = s.store.Tournaments().ListByCreator(gctx, viewerID)
			return err
		})
		g.Go(func() error {
			var err error
			participations, err = s.store.Participants().ListByUser(gctx, viewerID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, internalError("list my tournaments", err)
		}

		joinedIDs := make([]string, len(participations))
		for i, p := range participations {
			joinedIDs[i] = p.TournamentID
		}
		joined, err := s.store.Tournaments().ListByIDs(ctx, joinedIDs)
		if err != nil {
			return nil, internalError("list joined tournaments", err)
		}
		joinedByID := make(map[string]models.Tournament, len(joined))
		for _, t := range joined {
			joinedByID[t.ID] = t
		}

		createdEntries := make([]lifecycle.Entry[models.Tournament], 0, len(created))
		for _, t := range created {
			createdEntries = append(createdEntries, lifecycle.Entry[models.Tournament]{
				TournamentID: t.ID, RelevantDate: t.CreatedAt, Role: lifecycle.RoleOrganizer, Item: t,
			})
		}
		joinedEntries := make([]lifecycle.Entry[models.Tournament], 0, len(participations))
		for _, p := range participations {
			t, ok := joinedByID[p.TournamentID]
			if !ok {
				continue
			}
			joinedEntries = append(joinedEntries, lifecycle.Entry[models.Tournament]{
				TournamentID: t.ID, RelevantDate: p.JoinedAt, Role: lifecycle.RoleParticipant, Item: t,
			})
		}

		now := s.now()
		merged := lifecycle.MergeMine(createdEntries, joinedEntries)
		bucket := make([]lifecycle.Entry[models.Tournament], 0, len(merged))
		rows := make([]models.Tournament, 0, len(merged))
		for _, e := range merged {
			if lifecycle.IsFinished(now, e.Item.DateEnd, e.Item.IsActive) == finished {
				bucket = append(bucket, e)
				rows = append(rows, e.Item)
			}
		}
		if err := loadRelations(ctx, s.store, rows); err != nil {
			return nil, internalError("load my tournaments", err)
		}

		out := make([]TournamentSummary, len(rows))
		for i := range rows {
			out[i] = toSummary(&rows[i], viewerID, now, bucket[i].RelevantDate)
		}
		return out, nil
	})
}

func (s *tournamentService) Create(ctx context.Context, organizerID string, in CreateTournamentInput) (*TournamentDetail, error) {
	return withTelemetry(s, ctx, "Create", organizerID, func(ctx context.Context) (*TournamentDetail, error) {
		if organizerID == "" {
			return nil, ErrNoTokenProvided
		}
		t := in.toModel()
		if err := validateTournament(&t); err != nil {
			return nil, err
		}

		images, err := s.resolveImages(ctx, in.Images)
		if err != nil {
			return nil, err
		}

		now := s.now()
		t.ID = s.newID()
		t.CreatedBy = organizerID
		t.IsActive = true
		t.IsApproved = s.cfg.AutoApprove
		t.CreatedAt = now
		t.UpdatedAt = now

		err = s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			if err := tx.Tournaments().Create(ctx, &t); err != nil {
				return err
			}
			if err := tx.Images().InsertMany(ctx, t.ID, images); err != nil {
				return err
			}
			return tx.Geo().Upsert(ctx, t.ID, geo.Point{Lat: t.Latitude, Lng: t.Longitude})
		})
		if err != nil {
			return nil, mapRepoError("create tournament", err)
		}

		s.logger.InfoContext(ctx, "tournament created",
			slog.String("tournament_id", t.ID),
			slog.String("organizer_id", organizerID),
			slog.Int("images", len(images)),
		)
		return s.refetch(ctx, t.ID, organizerID)
	})
}

func (s *tournamentService) Update(ctx context.Context, id, requesterID string, patch TournamentPatch) (*TournamentDetail, error) {
	return withTelemetry(s, ctx, "Update", id, func(ctx context.Context) (*TournamentDetail, error) {
		current, err := s.store.Tournaments().GetByID(ctx, id)
		if err != nil {
			return nil, mapRepoError("get tournament", err)
		}
		if err := requireOrganizer(current, requesterID); err != nil {
			return nil, err
		}
		merged := applyPatch(*current, patch)
		if err := validateTournament(&merged); err != nil {
			return nil, err
		}

		images, err := s.resolveImages(ctx, patch.Images)
		if err != nil {
			return nil, err
		}

		err = s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			locked, err := tx.Tournaments().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := requireOrganizer(locked, requesterID); err != nil {
				return err
			}
			next := applyPatch(*locked, patch)
			if err := validateTournament(&next); err != nil {
				return err
			}
			next.UpdatedAt = s.now()
			if err := tx.Tournaments().Update(ctx, &next); err != nil {
				return err
			}
			if err := tx.Images().DeleteByTournament(ctx, id); err != nil {
				return err
			}
			if err := tx.Images().InsertMany(ctx, id, images); err != nil {
				return err
			}
			return tx.Geo().Upsert(ctx, id, geo.Point{Lat: next.Latitude, Lng: next.Longitude})
		})
		if err != nil {
			return nil, mapRepoError("update tournament", err)
		}

		s.logger.InfoContext(ctx, "tournament updated", slog.String("tournament_id", id))
		return s.refetch(ctx, id, requesterID)
	})
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id, requesterID string, isActive bool) (*TournamentDetail, error) {
	return withTelemetry(s, ctx, "UpdateStatus", id, func(ctx context.Context) (*TournamentDetail, error) {
		err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			t, err := tx.Tournaments().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := requireOrganizer(t, requesterID); err != nil {
				return err
			}
			return tx.Tournaments().UpdateActive(ctx, id, isActive, s.now())
		})
		if err != nil {
			return nil, mapRepoError("update tournament status", err)
		}

		s.logger.InfoContext(ctx, "tournament status changed",
			slog.String("tournament_id", id),
			slog.Bool("is_active", isActive),
		)
		return s.refetch(ctx, id, requesterID)
	})
}

func (s *tournamentService) Delete(ctx context.Context, id, requesterID string) error {
	_, err := withTelemetry(s, ctx, "Delete", id, func(ctx context.Context) (struct{}, error) {
		err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			t, err := tx.Tournaments().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := requireOrganizer(t, requesterID); err != nil {
				return err
			}
			if err := tx.Images().DeleteByTournament(ctx, id); err != nil {
				return err
			}
			if err := tx.Participants().DeleteByTournament(ctx, id); err != nil {
				return err
			}
			if err := tx.Geo().Remove(ctx, id); err != nil {
				return err
			}
			return tx.Tournaments().Delete(ctx, id)
		})
		if err != nil {
			return struct{}{}, mapRepoError("delete tournament", err)
		}
		s.logger.InfoContext(ctx, "tournament deleted", slog.String("tournament_id", id))
		return struct{}{}, nil
	})
	return err
}

// refetch reads the committed aggregate for the response of a mutation.
func (s *tournamentService) refetch(ctx context.Context, id, viewerID string) (*TournamentDetail, error) {
	t, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("reload tournament", err)
	}
	return s.detail(ctx, s.store, t, viewerID)
}

func (s *tournamentService) resolveImages(ctx context.Context, handles []ImageHandle) ([]models.Image, error) {
	ids := normalizeHandles(handles)
	if len(ids) == 0 {
		return nil, nil
	}
	images, err := s.images.Resolve(ctx, ids)
	if err != nil {
		return nil, upstreamError("image storage", err)
	}
	return images, nil
}
