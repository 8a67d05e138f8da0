package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	database "github.com/FACorreiaa/go-tekuteku/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository stores likes. For account likes the venue counter is kept in
// step by a trigger on venue_likes; device likes adjust it directly.
type Repository interface {
	AddLike(ctx context.Context, venueID, userID uuid.UUID) error
	RemoveLike(ctx context.Context, venueID, userID uuid.UUID) error
	IsLiked(ctx context.Context, venueID, userID uuid.UUID) (bool, error)
	LikesCount(ctx context.Context, venueID uuid.UUID) (int, error)

	// Counter updates for device likes. Both return the stored count.
	IncrementLikes(ctx context.Context, venueID uuid.UUID) (int, error)
	DecrementLikes(ctx context.Context, venueID uuid.UUID) (int, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func (r *RepositoryImpl) AddLike(ctx context.Context, venueID, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO venue_likes (venue_id, user_id) VALUES ($1, $2) ON CONFLICT (venue_id, user_id) DO NOTHING",
		venueID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: foreign_key_violation, the venue is gone
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("venue %s: %w", venueID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to add like: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) RemoveLike(ctx context.Context, venueID, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		"DELETE FROM venue_likes WHERE venue_id = $1 AND user_id = $2",
		venueID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) IsLiked(ctx context.Context, venueID, userID uuid.UUID) (bool, error) {
	var liked bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM venue_likes WHERE venue_id = $1 AND user_id = $2)",
		venueID, userID).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}

func (r *RepositoryImpl) LikesCount(ctx context.Context, venueID uuid.UUID) (int, error) {
	var count int
	err := r.pgpool.QueryRow(ctx, "SELECT likes_count FROM venues WHERE id = $1", venueID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("venue %s: %w", venueID, models.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to read likes count: %w", err)
	}
	return count, nil
}

func (r *RepositoryImpl) IncrementLikes(ctx context.Context, venueID uuid.UUID) (int, error) {
	return r.adjustLikes(ctx, venueID, "likes_count + 1")
}

func (r *RepositoryImpl) DecrementLikes(ctx context.Context, venueID uuid.UUID) (int, error) {
	return r.adjustLikes(ctx, venueID, "GREATEST(likes_count - 1, 0)")
}

func (r *RepositoryImpl) adjustLikes(ctx context.Context, venueID uuid.UUID, expr string) (int, error) {
	var count int
	err := r.pgpool.QueryRow(ctx,
		"UPDATE venues SET likes_count = "+expr+" WHERE id = $1 RETURNING likes_count", venueID,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("venue %s: %w", venueID, models.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to update likes count: %w", err)
	}
	return count, nil
}
