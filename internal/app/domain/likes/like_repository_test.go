package likes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	venueID, userID := uuid.New(), uuid.New()

	t.Run("add like ignores repeats", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewRepository(mock, zap.NewNop())

		mock.ExpectExec(`INSERT INTO venue_likes (.+) ON CONFLICT`).WithArgs(venueID, userID).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		require.NoError(t, repo.AddLike(ctx, venueID, userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("add like on a deleted venue", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewRepository(mock, zap.NewNop())

		mock.ExpectExec(`INSERT INTO venue_likes`).WithArgs(venueID, userID).
			WillReturnError(&pgconn.PgError{Code: "23503"})
		assert.ErrorIs(t, repo.AddLike(ctx, venueID, userID), models.ErrNotFound)
	})

	t.Run("decrement is floored in SQL", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewRepository(mock, zap.NewNop())

		mock.ExpectQuery(`UPDATE venues SET likes_count = GREATEST\(likes_count - 1, 0\)`).WithArgs(venueID).
			WillReturnRows(pgxmock.NewRows([]string{"likes_count"}).AddRow(0))
		count, err := repo.DecrementLikes(ctx, venueID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("count of a missing venue", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewRepository(mock, zap.NewNop())

		mock.ExpectQuery(`SELECT likes_count FROM venues`).WithArgs(venueID).WillReturnError(pgx.ErrNoRows)
		_, err = repo.LikesCount(ctx, venueID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("is liked", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewRepository(mock, zap.NewNop())

		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(venueID, userID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		liked, err := repo.IsLiked(ctx, venueID, userID)
		require.NoError(t, err)
		assert.True(t, liked)
	})
}
