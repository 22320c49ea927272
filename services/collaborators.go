package services

import (
	"context"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
)

// ImageResolver turns opaque upload handles into image records. Unknown
// handles are dropped; transport failures are returned as errors.
type ImageResolver interface {
	Resolve(ctx context.Context, handles []string) ([]models.Image, error)
}

// Locator maps a client IP to coordinates. A nil point with a nil error means
// the address could not be placed.
type Locator interface {
	Locate(ctx context.Context, ip string) (*geo.Point, error)
}
