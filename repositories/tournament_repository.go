package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/models"
	"github.com/lib/pq"
)

var ErrTournamentInvalid = errors.New("tournament violates a table constraint")

const tournamentColumns = `
	t.id, t.created_by, t.title, t.description, t.rules, t.sport_type, t.skill_level, t.format,
	t.date_start, t.date_end, t.entry_fee, t.prize_pool, t.max_participants,
	t.location, t.city, t.latitude, t.longitude, t.min_age, t.max_age,
	t.is_active, t.is_approved, t.created_at, t.updated_at`

type postgresTournamentRepository struct {
	exec SQLExecutor
	inTx bool
}

func scanTournament(rowScanner interface {
	Scan(dest ...interface{}) error
}, t *models.Tournament, extra ...interface{}) error {
	dest := []interface{}{
		&t.ID, &t.CreatedBy, &t.Title, &t.Description, &t.Rules, &t.SportType, &t.SkillLevel, &t.Format,
		&t.DateStart, &t.DateEnd, &t.EntryFee, &t.PrizePool, &t.MaxParticipants,
		&t.Location, &t.City, &t.Latitude, &t.Longitude, &t.MinAge, &t.MaxAge,
		&t.IsActive, &t.IsApproved, &t.CreatedAt, &t.UpdatedAt,
	}
	return rowScanner.Scan(append(dest, extra...)...)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			id, created_by, title, description, rules, sport_type, skill_level, format,
			date_start, date_end, entry_fee, prize_pool, max_participants,
			location, city, latitude, longitude, min_age, max_age,
			is_active, is_approved, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err := r.exec.ExecContext(ctx, query,
		t.ID, t.CreatedBy, t.Title, t.Description, t.Rules, t.SportType, t.SkillLevel, t.Format,
		t.DateStart, t.DateEnd, t.EntryFee, t.PrizePool, t.MaxParticipants,
		t.Location, t.City, t.Latitude, t.Longitude, t.MinAge, t.MaxAge,
		t.IsActive, t.IsApproved, t.CreatedAt, t.UpdatedAt,
	)
	return handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	return r.getOne(ctx, `SELECT`+tournamentColumns+` FROM tournaments t WHERE t.id = $1`, id)
}

func (r *postgresTournamentRepository) GetForUpdate(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments t WHERE t.id = $1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	return r.getOne(ctx, query, id)
}

func (r *postgresTournamentRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Tournament, error) {
	t := &models.Tournament{}
	if err := scanTournament(r.exec.QueryRowContext(ctx, query, args...), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) Search(ctx context.Context, q SearchQuery) ([]models.Tournament, int, error) {
	if q.CandidateIDs != nil && len(q.CandidateIDs) == 0 {
		return []models.Tournament{}, 0, nil
	}

	where, args := buildSearchWhere(q)
	argID := len(args) + 1

	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	var qb strings.Builder
	qb.WriteString(`SELECT` + tournamentColumns + `, COUNT(*) OVER() AS total FROM tournaments t`)
	qb.WriteString(where)
	qb.WriteString(fmt.Sprintf(" ORDER BY t.%s %s, t.id %s", q.SortBy.column(), direction, direction))
	if q.Limit > 0 {
		qb.WriteString(fmt.Sprintf(" LIMIT $%d", argID))
		args = append(args, q.Limit)
		argID++
	}
	if q.Offset > 0 {
		qb.WriteString(fmt.Sprintf(" OFFSET $%d", argID))
		args = append(args, q.Offset)
	}

	rows, err := r.exec.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search tournaments: %w", err)
	}
	defer rows.Close()

	total := 0
	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t, &total); err != nil {
			return nil, 0, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating tournament rows: %w", err)
	}

	// The window count is unavailable when the page is past the last row.
	if len(tournaments) == 0 && q.Offset > 0 {
		countWhere, countArgs := buildSearchWhere(q)
		if err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments t`+countWhere, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to count tournaments: %w", err)
		}
	}
	return tournaments, total, nil
}

func buildSearchWhere(q SearchQuery) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(" WHERE 1=1")
	args := []interface{}{}
	argID := 1

	add := func(clause string, values ...interface{}) {
		placeholders := make([]interface{}, len(values))
		for i := range values {
			placeholders[i] = argID
			argID++
		}
		sb.WriteString(" AND ")
		sb.WriteString(fmt.Sprintf(clause, placeholders...))
		args = append(args, values...)
	}

	if q.OnlyPublic {
		sb.WriteString(" AND t.is_active = TRUE AND t.is_approved = TRUE")
	}
	if len(q.SportTypes) > 0 {
		values := make([]string, len(q.SportTypes))
		for i, s := range q.SportTypes {
			values[i] = string(s)
		}
		add("t.sport_type = ANY($%d)", pq.Array(values))
	}
	if len(q.SkillLevels) > 0 {
		values := make([]string, len(q.SkillLevels))
		for i, s := range q.SkillLevels {
			values[i] = string(s)
		}
		add("t.skill_level = ANY($%d)", pq.Array(values))
	}
	if q.PrizePool.Min != nil {
		add("t.prize_pool >= $%d", *q.PrizePool.Min)
	}
	if q.PrizePool.Max != nil {
		add("t.prize_pool <= $%d", *q.PrizePool.Max)
	}
	if q.EntryFee.Min != nil {
		add("t.entry_fee >= $%d", *q.EntryFee.Min)
	}
	if q.EntryFee.Max != nil {
		add("t.entry_fee <= $%d", *q.EntryFee.Max)
	}
	if q.Title != "" {
		add(`t.title ILIKE $%d ESCAPE '\'`, containsPattern(q.Title))
	}
	if q.WindowStart != nil && q.WindowEnd != nil {
		add("t.date_start <= $%d AND t.date_end >= $%d", *q.WindowEnd, *q.WindowStart)
	} else if q.StartsAfter != nil {
		add("t.date_start > $%d", *q.StartsAfter)
	}
	if q.CandidateIDs != nil {
		add("t.id = ANY($%d)", pq.Array(q.CandidateIDs.Slice()))
	}
	return sb.String(), args
}

func (r *postgresTournamentRepository) ListByCreator(ctx context.Context, userID string) ([]models.Tournament, error) {
	return r.list(ctx, `SELECT`+tournamentColumns+` FROM tournaments t WHERE t.created_by = $1 ORDER BY t.created_at DESC`, userID)
}

func (r *postgresTournamentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Tournament, error) {
	if len(ids) == 0 {
		return []models.Tournament{}, nil
	}
	return r.list(ctx, `SELECT`+tournamentColumns+` FROM tournaments t WHERE t.id = ANY($1)`, pq.Array(ids))
}

func (r *postgresTournamentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Tournament, error) {
	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			title = $1,
			description = $2,
			rules = $3,
			sport_type = $4,
			skill_level = $5,
			format = $6,
			date_start = $7,
			date_end = $8,
			entry_fee = $9,
			prize_pool = $10,
			max_participants = $11,
			location = $12,
			city = $13,
			latitude = $14,
			longitude = $15,
			min_age = $16,
			max_age = $17,
			updated_at = $18
		WHERE id = $19`

	result, err := r.exec.ExecContext(ctx, query,
		t.Title, t.Description, t.Rules, t.SportType, t.SkillLevel, t.Format,
		t.DateStart, t.DateEnd, t.EntryFee, t.PrizePool, t.MaxParticipants,
		t.Location, t.City, t.Latitude, t.Longitude, t.MinAge, t.MaxAge,
		t.UpdatedAt, t.ID,
	)
	if err != nil {
		return handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateActive(ctx context.Context, id string, isActive bool, updatedAt time.Time) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE tournaments SET is_active = $1, updated_at = $2 WHERE id = $3`, isActive, updatedAt, id)
	if err != nil {
		return handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23514", "23502": // check_violation, not_null_violation
			return fmt.Errorf("%w: %s", ErrTournamentInvalid, pqErr.Constraint)
		}
	}
	return err
}
