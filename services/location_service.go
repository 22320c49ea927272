package services

import (
	"context"

	"github.com/Dosada05/tournament-finder/geo"
)

type LocationService interface {
	Locate(ctx context.Context, ip string) (*geo.Point, error)
}

type locationService struct {
	locator Locator
}

func NewLocationService(locator Locator) LocationService {
	return &locationService{locator: locator}
}

// Locate is the strict form of the discovery fallback: an unplaceable address
// is LOCATION_NOT_FOUND and a lookup failure is an upstream error.
func (s *locationService) Locate(ctx context.Context, ip string) (*geo.Point, error) {
	if s.locator == nil || ip == "" {
		return nil, ErrLocationNotFound
	}
	p, err := s.locator.Locate(ctx, ip)
	if err != nil {
		return nil, upstreamError("geolocation", err)
	}
	if p == nil {
		return nil, ErrLocationNotFound
	}
	return p, nil
}
