package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-finder/models"
	"github.com/lib/pq"
)

type postgresUserRepository struct {
	exec SQLExecutor
}

func (r *postgresUserRepository) Upsert(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, image_url, organizer_name, organizer_contact, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			image_url = EXCLUDED.image_url,
			organizer_name = EXCLUDED.organizer_name,
			organizer_contact = EXCLUDED.organizer_contact,
			is_verified = EXCLUDED.is_verified,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at`

	err := r.exec.QueryRowContext(ctx, query,
		u.ID, u.Email, u.FirstName, u.LastName, u.ImageURL,
		u.OrganizerName, u.OrganizerContact, u.IsVerified, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.exec.QueryContext(ctx, `
		SELECT id, email, first_name, last_name, image_url, organizer_name, organizer_contact, is_verified, created_at, updated_at
		FROM users
		WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ImageURL,
			&u.OrganizerName, &u.OrganizerContact, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		out[u.ID] = u
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return out, nil
}
