package likes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/auth"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/cache"
)

var _ Ledger = (*AccountLedger)(nil)

// AccountLedger records likes against the signed-in user. The store is the
// source of truth: every toggle writes first and then reads the live state.
type AccountLedger struct {
	repo   Repository
	views  *cache.UnifiedCache[bool]
	logger *zap.Logger
}

func NewAccountLedger(repo Repository, views *cache.UnifiedCache[bool], logger *zap.Logger) *AccountLedger {
	return &AccountLedger{
		repo:   repo,
		views:  views,
		logger: logger,
	}
}

func (l *AccountLedger) ActorID(ctx context.Context) (string, error) {
	actor := models.ActorFrom(ctx)
	if !actor.Authenticated() {
		return "", fmt.Errorf("liking requires sign-in: %w", models.ErrUnauthenticated)
	}
	return actor.UserID.String(), nil
}

func (l *AccountLedger) Toggle(ctx context.Context, venueID uuid.UUID) (State, error) {
	if _, err := l.ActorID(ctx); err != nil {
		return State{}, err
	}
	userID := models.ActorFrom(ctx).UserID
	log := l.logger.With(zap.String("method", "Toggle"),
		zap.String("venue_id", venueID.String()),
		zap.String("user_id", userID.String()))

	liked, err := l.repo.IsLiked(ctx, venueID, userID)
	if err != nil {
		return State{}, err
	}

	if liked {
		err = l.repo.RemoveLike(ctx, venueID, userID)
	} else {
		err = l.repo.AddLike(ctx, venueID, userID)
	}
	if err != nil {
		log.Error("Like write failed", zap.Error(err))
		return State{}, err
	}
	l.views.Delete(viewKey(userID, venueID))

	state, err := l.read(ctx, venueID, userID)
	if err != nil {
		return State{}, err
	}

	metrics.Get().LikeTogglesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", "account"),
		attribute.Bool("liked", state.Liked),
	))
	log.Debug("Like toggled", zap.Bool("liked", state.Liked), zap.Int("count", state.Count))
	return state, nil
}

// State returns the live count and, for a signed-in user, whether they
// liked the venue. Anonymous callers get Liked=false.
func (l *AccountLedger) State(ctx context.Context, venueID uuid.UUID) (State, error) {
	actor := models.ActorFrom(ctx)
	if !actor.Authenticated() {
		count, err := l.repo.LikesCount(ctx, venueID)
		if err != nil {
			return State{}, err
		}
		return State{Count: count}, nil
	}
	return l.read(ctx, venueID, actor.UserID)
}

func (l *AccountLedger) read(ctx context.Context, venueID, userID uuid.UUID) (State, error) {
	count, err := l.repo.LikesCount(ctx, venueID)
	if err != nil {
		return State{}, err
	}

	key := viewKey(userID, venueID)
	if liked, ok := l.views.Get(key); ok {
		return State{Liked: liked, Count: count}, nil
	}

	liked, err := l.repo.IsLiked(ctx, venueID, userID)
	if err != nil {
		return State{}, err
	}
	l.views.Set(key, liked)
	return State{Liked: liked, Count: count}, nil
}

// Watch drops cached liked flags whenever the session changes hands, until
// events is closed or ctx is done.
func (l *AccountLedger) Watch(ctx context.Context, events <-chan auth.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.views.Clear()
			l.logger.Debug("Like views reset",
				zap.String("event", ev.Kind.String()),
				zap.String("user_id", ev.UserID.String()))
		}
	}
}

func viewKey(userID, venueID uuid.UUID) string {
	return userID.String() + ":" + venueID.String()
}
