package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
)

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("participant conflict: user already registered for this tournament")
	ErrCapacityReached     = errors.New("tournament capacity reached")
	ErrUserNotFound        = errors.New("user not found")
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	// GetForUpdate loads the row and, inside a transaction, locks it until
	// commit so registration checks and writes on one tournament serialize.
	GetForUpdate(ctx context.Context, id string) (*models.Tournament, error)
	Search(ctx context.Context, q SearchQuery) ([]models.Tournament, int, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Tournament, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament) error
	UpdateActive(ctx context.Context, id string, isActive bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type ImageRepository interface {
	InsertMany(ctx context.Context, tournamentID string, images []models.Image) error
	DeleteByTournament(ctx context.Context, tournamentID string) error
	ListByTournaments(ctx context.Context, tournamentIDs []string) (map[string][]models.Image, error)
}

type ParticipantRepository interface {
	// Insert adds the row only while the tournament holds fewer than
	// maxParticipants rows. It returns ErrParticipantConflict for an existing
	// pair and ErrCapacityReached when the bound would be exceeded.
	Insert(ctx context.Context, p *models.Participation, maxParticipants int) error
	Delete(ctx context.Context, tournamentID, userID string) error
	DeleteByTournament(ctx context.Context, tournamentID string) error
	Count(ctx context.Context, tournamentID string) (int, error)
	ListByTournaments(ctx context.Context, tournamentIDs []string) (map[string][]models.Participation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Participation, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// Store groups the repositories that must share one transaction.
type Store interface {
	Tournaments() TournamentRepository
	Images() ImageRepository
	Participants() ParticipantRepository
	Users() UserRepository
	Geo() geo.Index
	// InTx runs fn against a store bound to a single transaction. fn's error
	// rolls everything back; nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type postgresStore struct {
	db   *sql.DB
	exec SQLExecutor
	inTx bool
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db, exec: db}
}

func (s *postgresStore) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: s.exec, inTx: s.inTx}
}

func (s *postgresStore) Images() ImageRepository {
	return &postgresImageRepository{exec: s.exec}
}

func (s *postgresStore) Participants() ParticipantRepository {
	return &postgresParticipantRepository{exec: s.exec}
}

func (s *postgresStore) Users() UserRepository {
	return &postgresUserRepository{exec: s.exec}
}

func (s *postgresStore) Geo() geo.Index {
	return &postgresGeoIndex{exec: s.exec}
}

func (s *postgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
		}
	}()

	if err = fn(ctx, &postgresStore{db: s.db, exec: tx, inTx: true}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
