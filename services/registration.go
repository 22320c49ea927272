package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-finder/lifecycle"
	"github.com/Dosada05/tournament-finder/models"
	"github.com/Dosada05/tournament-finder/repositories"
)

// Registration outcomes reported to metrics.
const (
	outcomeSuccess           = "success"
	outcomeAlreadyRegistered = "already_registered"
	outcomeFull              = "full"
	outcomeNotFound          = "not_found"
	outcomeError             = "error"
)

// openForRegistration reports whether t accepts new participants at now.
// Callers surface a closed tournament as not found.
func openForRegistration(t *models.Tournament, now time.Time) bool {
	return t.IsActive && t.IsApproved && lifecycle.DeriveStatus(now, t.DateStart, t.DateEnd) != lifecycle.StatusFinished
}

func (s *tournamentService) Register(ctx context.Context, id, userID string) (*TournamentDetail, error) {
	return withTelemetry(s, ctx, "Register", id, func(ctx context.Context) (*TournamentDetail, error) {
		if userID == "" {
			return nil, ErrNoTokenProvided
		}

		err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			t, err := tx.Tournaments().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			now := s.now()
			if !openForRegistration(t, now) {
				return ErrTournamentNotFound
			}
			return tx.Participants().Insert(ctx, &models.Participation{
				TournamentID: id,
				UserID:       userID,
				JoinedAt:     now,
			}, t.MaxParticipants)
		})
		err = mapRepoError("register participant", err)
		s.metrics.RecordRegistration(ctx, registrationOutcome(err))
		if err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "participant registered",
			slog.String("tournament_id", id),
			slog.String("user_id", userID),
		)
		return s.refetch(ctx, id, userID)
	})
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrAlreadyRegistered):
		return outcomeAlreadyRegistered
	case errors.Is(err, ErrMaxParticipants):
		return outcomeFull
	case errors.Is(err, ErrTournamentNotFound):
		return outcomeNotFound
	}
	return outcomeError
}

func (s *tournamentService) Leave(ctx context.Context, id, userID string) (*TournamentDetail, error) {
	return withTelemetry(s, ctx, "Leave", id, func(ctx context.Context) (*TournamentDetail, error) {
		if userID == "" {
			return nil, ErrNoTokenProvided
		}

		err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			if _, err := tx.Tournaments().GetForUpdate(ctx, id); err != nil {
				return err
			}
			return tx.Participants().Delete(ctx, id, userID)
		})
		if err != nil {
			return nil, mapRepoError("leave tournament", err)
		}

		s.logger.InfoContext(ctx, "participant left",
			slog.String("tournament_id", id),
			slog.String("user_id", userID),
		)
		return s.refetch(ctx, id, userID)
	})
}

func (s *tournamentService) RemoveParticipant(ctx context.Context, id, requesterID, participantID string) (*TournamentDetail, error) {
	return withTelemetry(s, ctx, "RemoveParticipant", id, func(ctx context.Context) (*TournamentDetail, error) {
		if participantID == "" {
			return nil, newValidationError("participantId", "is required")
		}

		err := s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			t, err := tx.Tournaments().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := requireOrganizer(t, requesterID); err != nil {
				return err
			}
			// The organizer is not a participant of their own tournament.
			if participantID == t.CreatedBy {
				return ErrNotRegistered
			}
			return tx.Participants().Delete(ctx, id, participantID)
		})
		if err != nil {
			return nil, mapRepoError("remove participant", err)
		}

		s.logger.InfoContext(ctx, "participant removed",
			slog.String("tournament_id", id),
			slog.String("participant_id", participantID),
			slog.String("organizer_id", requesterID),
		)
		return s.refetch(ctx, id, requesterID)
	})
}
