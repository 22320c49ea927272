// Package geo is the spatial side of tournament discovery: a point type, the
// index contract used by the search path, and WGS84 distance helpers.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/geodesic"
)

var ErrInvalidPoint = errors.New("coordinates out of range")

// Point is a WGS84 position in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: (%f, %f)", ErrInvalidPoint, p.Lat, p.Lng)
	}
	return nil
}

// IDSet is the set of tournament ids matched by a radius query.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Index is a derived accelerator over tournament coordinates. It is never the
// system of record: writes happen in the same transaction as the tournament
// row they mirror.
type Index interface {
	FindWithinRadius(ctx context.Context, center Point, radiusKm float64) (IDSet, error)
	Upsert(ctx context.Context, tournamentID string, p Point) error
	Remove(ctx context.Context, tournamentID string) error
}

// KilometersToMeters converts a caller radius into the native unit of both
// index implementations.
func KilometersToMeters(km float64) float64 {
	return km * 1000
}

// DistanceMeters is the geodesic distance between a and b on the WGS84
// ellipsoid.
func DistanceMeters(a, b Point) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(a.Lat, a.Lng, b.Lat, b.Lng, &s12, nil, nil)
	return s12
}
