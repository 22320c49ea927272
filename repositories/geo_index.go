package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-finder/geo"
)

// postgresGeoIndex keeps one PostGIS geography point per tournament in
// tournament_locations. Distances are computed on the spheroid in meters.
type postgresGeoIndex struct {
	exec SQLExecutor
}

func (g *postgresGeoIndex) FindWithinRadius(ctx context.Context, center geo.Point, radiusKm float64) (geo.IDSet, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	rows, err := g.exec.QueryContext(ctx, `
		SELECT tournament_id
		FROM tournament_locations
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)`,
		center.Lng, center.Lat, geo.KilometersToMeters(radiusKm))
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament locations: %w", err)
	}
	defer rows.Close()

	found := make(geo.IDSet)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tournament location row: %w", err)
		}
		found[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament location rows: %w", err)
	}
	return found, nil
}

func (g *postgresGeoIndex) Upsert(ctx context.Context, tournamentID string, p geo.Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := g.exec.ExecContext(ctx, `
		INSERT INTO tournament_locations (tournament_id, location)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
		ON CONFLICT (tournament_id) DO UPDATE SET location = EXCLUDED.location`,
		tournamentID, p.Lng, p.Lat)
	if err != nil {
		return fmt.Errorf("failed to upsert tournament location: %w", err)
	}
	return nil
}

func (g *postgresGeoIndex) Remove(ctx context.Context, tournamentID string) error {
	if _, err := g.exec.ExecContext(ctx, `DELETE FROM tournament_locations WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete tournament location: %w", err)
	}
	return nil
}
