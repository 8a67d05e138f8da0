package likes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/cache"
)

var _ Ledger = (*DeviceLedger)(nil)

// DeviceLedger records likes against the device id. Toggles update the
// device's view at once; the stored counter is adjusted in the background
// and a failed write is not rolled back.
type DeviceLedger struct {
	repo       Repository
	liked      LikedSet
	views      *cache.UnifiedCache[int]
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewDeviceLedger(repo Repository, liked LikedSet, views *cache.UnifiedCache[int], dispatcher *Dispatcher, logger *zap.Logger) *DeviceLedger {
	return &DeviceLedger{
		repo:       repo,
		liked:      liked,
		views:      views,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (l *DeviceLedger) ActorID(ctx context.Context) (string, error) {
	deviceID := models.ActorFrom(ctx).DeviceID
	if deviceID == "" {
		return "", fmt.Errorf("no device id on request: %w", models.ErrBadRequest)
	}
	return deviceID, nil
}

func (l *DeviceLedger) Toggle(ctx context.Context, venueID uuid.UUID) (State, error) {
	deviceID, err := l.ActorID(ctx)
	if err != nil {
		return State{}, err
	}

	current, err := l.State(ctx, venueID)
	if err != nil {
		return State{}, err
	}
	next := current.Toggled()

	var changed bool
	if next.Liked {
		changed, err = l.liked.Add(ctx, deviceID, venueID)
	} else {
		changed, err = l.liked.Remove(ctx, deviceID, venueID)
	}
	if err != nil {
		return State{}, err
	}
	if !changed {
		// A concurrent toggle from this device already made the same move
		// and owns the counter write.
		l.logger.Debug("Like toggle lost the race",
			zap.String("venue_id", venueID.String()),
			zap.String("device_id", deviceID))
		return l.State(ctx, venueID)
	}
	l.views.Set(viewCountKey(deviceID, venueID), next.Count)

	l.dispatcher.Dispatch("likes."+venueID.String(), func(ctx context.Context) error {
		if next.Liked {
			_, err := l.repo.IncrementLikes(ctx, venueID)
			return err
		}
		_, err := l.repo.DecrementLikes(ctx, venueID)
		return err
	})

	metrics.Get().LikeTogglesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", "device"),
		attribute.Bool("liked", next.Liked),
	))
	l.logger.Debug("Like toggled",
		zap.String("venue_id", venueID.String()),
		zap.String("device_id", deviceID),
		zap.Bool("liked", next.Liked),
		zap.Int("count", next.Count))
	return next, nil
}

// State combines the device's liked flag with its local count view, falling
// back to the stored count.
func (l *DeviceLedger) State(ctx context.Context, venueID uuid.UUID) (State, error) {
	deviceID := models.ActorFrom(ctx).DeviceID

	var (
		liked bool
		err   error
	)
	if deviceID != "" {
		liked, err = l.liked.Contains(ctx, deviceID, venueID)
		if err != nil {
			return State{}, err
		}
		if count, ok := l.views.Get(viewCountKey(deviceID, venueID)); ok {
			return State{Liked: liked, Count: count}, nil
		}
	}

	count, err := l.repo.LikesCount(ctx, venueID)
	if err != nil {
		return State{}, err
	}
	return State{Liked: liked, Count: count}, nil
}

func viewCountKey(deviceID string, venueID uuid.UUID) string {
	return deviceID + ":" + venueID.String()
}
