package venues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/app/observability/metrics"
)

var _ Service = (*ServiceImpl)(nil)

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

// Service defines the venue flows used by the handlers.
type Service interface {
	List(ctx context.Context, f Filter) ([]models.Venue, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Venue, error)
	Create(ctx context.Context, actor models.Actor, in models.VenueInput, force bool) (*models.Venue, error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, in models.VenueInput) (*models.Venue, error)
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error
	CheckDuplicate(ctx context.Context, at models.Coordinates) *models.Venue
}

type ServiceImpl struct {
	logger     *zap.Logger
	repo       Repository
	directory  *Directory
	duplicates *DuplicateDetector
	geocoder   Geocoder
}

func NewService(repo Repository, directory *Directory, geocoder Geocoder, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		directory:  directory,
		duplicates: NewDuplicateDetector(repo, logger),
		geocoder:   geocoder,
	}
}

func (s *ServiceImpl) List(ctx context.Context, f Filter) ([]models.Venue, error) {
	start := time.Now()
	list, err := s.directory.Search(ctx, f)
	if err != nil {
		metrics.Get().DBQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to search venues: %w", err)
	}
	metrics.Get().VenueSearchesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("filtered", !f.IsEmpty()),
	))
	s.logger.Debug("Venue search",
		zap.String("query", f.Query),
		zap.Int("results", len(list)),
		zap.Duration("took", time.Since(start)),
	)
	return list, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) CheckDuplicate(ctx context.Context, at models.Coordinates) *models.Venue {
	return s.duplicates.FindDuplicate(ctx, at)
}

// Create validates the input, resolves coordinates when none were picked,
// runs the duplicate check and inserts. force skips the duplicate check.
func (s *ServiceImpl) Create(ctx context.Context, actor models.Actor, in models.VenueInput, force bool) (*models.Venue, error) {
	l := s.logger.With(zap.String("method", "Create"), zap.String("name", in.Name))

	ctx, span := otel.Tracer("VenueService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("venue.name", in.Name),
		attribute.Bool("force", force),
	))
	defer span.End()

	if !actor.Identified() {
		return nil, fmt.Errorf("posting a venue requires sign-in: %w", models.ErrUnauthenticated)
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	at := in.Coordinates()
	if at.IsZero() {
		resolved, err := s.geocode(ctx, in.Address)
		if err != nil {
			l.Warn("Geocoding failed", zap.String("address", in.Address), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "geocoding failed")
			return nil, err
		}
		at = resolved
	}

	if !force {
		if existing := s.duplicates.FindDuplicate(ctx, at); existing != nil {
			metrics.Get().DuplicateHitsTotal.Add(ctx, 1)
			span.SetStatus(codes.Error, "duplicate")
			return nil, &models.DuplicateError{Existing: *existing}
		}
	}

	v := in.ToVenue(at)
	if actor.Authenticated() {
		uid := actor.UserID
		v.PostedBy = &uid
	}
	if actor.DeviceID != "" {
		did := actor.DeviceID
		v.DeviceID = &did
	}

	if err := s.repo.Insert(ctx, &v); err != nil {
		l.Error("Failed to insert venue", zap.Error(err))
		metrics.Get().DBQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, err
	}
	s.directory.Invalidate()

	metrics.Get().VenueWritesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "create")))
	l.Info("Venue created", zap.String("venue_id", v.ID.String()), zap.Bool("forced", force))
	span.SetStatus(codes.Ok, "venue created")
	return &v, nil
}

// Update applies an edit by the owner or an admin. Coordinates are resolved
// again only when the address text changed.
func (s *ServiceImpl) Update(ctx context.Context, actor models.Actor, id uuid.UUID, in models.VenueInput) (*models.Venue, error) {
	l := s.logger.With(zap.String("method", "Update"), zap.String("venue_id", id.String()))

	ctx, span := otel.Tracer("VenueService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("venue.id", id.String()),
	))
	defer span.End()

	if !actor.Identified() {
		return nil, fmt.Errorf("editing requires sign-in: %w", models.ErrUnauthenticated)
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.EditableBy(actor) {
		l.Warn("Edit refused", zap.String("user_id", actor.UserID.String()))
		return nil, fmt.Errorf("venue %s: %w", id, models.ErrForbidden)
	}

	at := current.Coordinates()
	if in.Address != current.Address {
		resolved, err := s.geocode(ctx, in.Address)
		if err != nil {
			l.Warn("Geocoding failed", zap.String("address", in.Address), zap.Error(err))
			span.RecordError(err)
			return nil, err
		}
		at = resolved
	}

	next := in.ToVenue(at)
	next.ID = current.ID
	next.PostedBy = current.PostedBy
	next.DeviceID = current.DeviceID
	next.LikesCount = current.LikesCount
	next.CreatedAt = current.CreatedAt

	if err := s.repo.Update(ctx, actor, next); err != nil {
		span.RecordError(err)
		if !errors.Is(err, models.ErrForbidden) && !errors.Is(err, models.ErrNotFound) {
			metrics.Get().DBQueryErrorsTotal.Add(ctx, 1)
			l.Error("Failed to update venue", zap.Error(err))
		}
		return nil, err
	}
	s.directory.Invalidate()

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.Get().VenueWritesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "update")))
	l.Info("Venue updated", zap.Bool("regeocoded", in.Address != current.Address))
	span.SetStatus(codes.Ok, "venue updated")
	return updated, nil
}

// Delete removes a venue. Admin only.
func (s *ServiceImpl) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !actor.IsAdmin {
		return fmt.Errorf("delete requires admin: %w", models.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, actor, id); err != nil {
		return err
	}
	s.directory.Invalidate()

	metrics.Get().VenueWritesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "delete")))
	s.logger.Info("Venue deleted", zap.String("venue_id", id.String()))
	return nil
}

func (s *ServiceImpl) geocode(ctx context.Context, address string) (models.Coordinates, error) {
	if s.geocoder == nil {
		return models.Coordinates{}, fmt.Errorf("no geocoder configured: %w", models.ErrGeocodeFailed)
	}
	metrics.Get().GeocodeRequestsTotal.Add(ctx, 1)
	at, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		metrics.Get().GeocodeFailuresTotal.Add(ctx, 1)
		if !errors.Is(err, models.ErrGeocodeFailed) {
			err = fmt.Errorf("%w: %v", models.ErrGeocodeFailed, err)
		}
		return models.Coordinates{}, err
	}
	return at, nil
}
