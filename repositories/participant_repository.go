package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-finder/models"
	"github.com/lib/pq"
)

type postgresParticipantRepository struct {
	exec SQLExecutor
}

func (r *postgresParticipantRepository) Insert(ctx context.Context, p *models.Participation, maxParticipants int) error {
	// Capacity check and insert are one statement; callers hold the
	// tournament row lock from GetForUpdate.
	query := `
		INSERT INTO participants (tournament_id, user_id, joined_at)
		SELECT $1, $2, $3
		WHERE (SELECT COUNT(*) FROM participants WHERE tournament_id = $1) < $4
		ON CONFLICT (tournament_id, user_id) DO NOTHING
		RETURNING joined_at`

	err := r.exec.QueryRowContext(ctx, query, p.TournamentID, p.UserID, p.JoinedAt, maxParticipants).Scan(&p.JoinedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	var exists bool
	err = r.exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE tournament_id = $1 AND user_id = $2)`,
		p.TournamentID, p.UserID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check participant: %w", err)
	}
	if exists {
		return ErrParticipantConflict
	}
	return ErrCapacityReached
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, tournamentID, userID string) error {
	result, err := r.exec.ExecContext(ctx,
		`DELETE FROM participants WHERE tournament_id = $1 AND user_id = $2`, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) DeleteByTournament(ctx context.Context, tournamentID string) error {
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM participants WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) Count(ctx context.Context, tournamentID string) (int, error) {
	var n int
	if err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE tournament_id = $1`, tournamentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return n, nil
}

func (r *postgresParticipantRepository) ListByTournaments(ctx context.Context, tournamentIDs []string) (map[string][]models.Participation, error) {
	out := make(map[string][]models.Participation, len(tournamentIDs))
	if len(tournamentIDs) == 0 {
		return out, nil
	}
	rows, err := r.exec.QueryContext(ctx, `
		SELECT tournament_id, user_id, joined_at
		FROM participants
		WHERE tournament_id = ANY($1)
		ORDER BY joined_at ASC, user_id ASC`, pq.Array(tournamentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participation
		if err := rows.Scan(&p.TournamentID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		out[p.TournamentID] = append(out[p.TournamentID], p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return out, nil
}

func (r *postgresParticipantRepository) ListByUser(ctx context.Context, userID string) ([]models.Participation, error) {
	rows, err := r.exec.QueryContext(ctx, `
		SELECT tournament_id, user_id, joined_at
		FROM participants
		WHERE user_id = $1
		ORDER BY joined_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Participation, 0)
	for rows.Next() {
		var p models.Participation
		if err := rows.Scan(&p.TournamentID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		out = append(out, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return out, nil
}
