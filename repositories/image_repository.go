package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-finder/models"
	"github.com/lib/pq"
)

type postgresImageRepository struct {
	exec SQLExecutor
}

func (r *postgresImageRepository) InsertMany(ctx context.Context, tournamentID string, images []models.Image) error {
	if len(images) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO tournament_images (tournament_id, public_id, url, secure_url, created_at) VALUES `)
	args := make([]interface{}, 0, len(images)*5)
	for i, img := range images {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 5
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5))
		args = append(args, tournamentID, img.PublicID, img.URL, img.SecureURL, img.CreatedAt)
	}
	sb.WriteString(` ON CONFLICT (tournament_id, public_id) DO NOTHING`)

	if _, err := r.exec.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert tournament images: %w", err)
	}
	return nil
}

func (r *postgresImageRepository) DeleteByTournament(ctx context.Context, tournamentID string) error {
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM tournament_images WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete tournament images: %w", err)
	}
	return nil
}

func (r *postgresImageRepository) ListByTournaments(ctx context.Context, tournamentIDs []string) (map[string][]models.Image, error) {
	out := make(map[string][]models.Image, len(tournamentIDs))
	if len(tournamentIDs) == 0 {
		return out, nil
	}
	rows, err := r.exec.QueryContext(ctx, `
		SELECT tournament_id, public_id, url, secure_url, created_at
		FROM tournament_images
		WHERE tournament_id = ANY($1)
		ORDER BY created_at ASC, public_id ASC`, pq.Array(tournamentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.TournamentID, &img.PublicID, &img.URL, &img.SecureURL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament image row: %w", err)
		}
		out[img.TournamentID] = append(out[img.TournamentID], img)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament image rows: %w", err)
	}
	return out, nil
}
