package venues

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

const (
	// metersPerDegree is a flat approximation; good enough at city scale.
	metersPerDegree = 111000.0

	// DuplicateRadiusMeters is the inclusive radius inside which a new venue
	// is reported as a probable duplicate.
	DuplicateRadiusMeters = 50.0
)

// Lister is the read side of the venue store.
type Lister interface {
	ListAll(ctx context.Context) ([]models.Venue, error)
}

// DistanceMeters approximates the distance between two points.
func DistanceMeters(a, b models.Coordinates) float64 {
	dLat := a.Latitude - b.Latitude
	dLng := a.Longitude - b.Longitude
	return math.Sqrt(dLat*dLat+dLng*dLng) * metersPerDegree
}

// FirstWithin returns the first venue in list order within radius of at.
func FirstWithin(list []models.Venue, at models.Coordinates, radius float64) *models.Venue {
	for i := range list {
		if DistanceMeters(list[i].Coordinates(), at) <= radius {
			v := list[i]
			return &v
		}
	}
	return nil
}

// DuplicateDetector checks candidate coordinates against the stored venues.
type DuplicateDetector struct {
	store  Lister
	logger *zap.Logger
}

func NewDuplicateDetector(store Lister, logger *zap.Logger) *DuplicateDetector {
	return &DuplicateDetector{store: store, logger: logger}
}

// FindDuplicate returns the first stored venue within DuplicateRadiusMeters
// of at, or nil. A store failure is logged and reported as no duplicate.
func (d *DuplicateDetector) FindDuplicate(ctx context.Context, at models.Coordinates) *models.Venue {
	l := d.logger.With(zap.String("method", "FindDuplicate"))

	list, err := d.store.ListAll(ctx)
	if err != nil {
		l.Warn("Duplicate check skipped, store unavailable", zap.Error(err))
		return nil
	}

	match := FirstWithin(list, at, DuplicateRadiusMeters)
	if match != nil {
		l.Info("Probable duplicate found",
			zap.String("venue_id", match.ID.String()),
			zap.String("venue_name", match.Name),
		)
	}
	return match
}
