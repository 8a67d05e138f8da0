package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	database "github.com/FACorreiaa/go-tekuteku/internal/db"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

const uniqueViolation = "23505"

type AuthRepo interface {
	// GetUserByEmail fetches user details needed for validation/token generation.
	GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	// GetUserByID fetches user details, including the admin flag, by ID.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error)
	// Register stores a new user with a HASHED password. Returns new user ID.
	Register(ctx context.Context, username, email, hashedPassword string) (uuid.UUID, error)

	// provider specific methods for user management
	CreateUser(ctx context.Context, user *models.UserAuth) error
	CreateUserProvider(ctx context.Context, userID uuid.UUID, provider, providerUserID string) error
	GetUserIDByProvider(ctx context.Context, provider, providerUserID string) (uuid.UUID, error)

	// --- Refresh Token Handling ---
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewPostgresAuthRepo(pgpool database.Pool, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

// GetUserByEmail implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, username, email, COALESCE(password_hash, ''), is_admin FROM users WHERE email = $1 AND is_active = TRUE`
	err := r.pgpool.QueryRow(ctx, query, email).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}

// GetUserByID implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, username, email, COALESCE(password_hash, ''), is_admin FROM users WHERE id = $1 AND is_active = TRUE`
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by ID", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return &user, nil
}

// Register implements auth.AuthRepo. Expects HASHED password.
func (r *PostgresAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (uuid.UUID, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "PostgresAuthRepo.Register", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.statement", "INSERT INTO users ..."),
	))
	defer span.End()

	var userID uuid.UUID
	userQuery := `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`
	err := r.pgpool.QueryRow(ctx, userQuery, username, email, hashedPassword).Scan(&userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, fmt.Errorf("email or username already exists: %w", models.ErrConflict)
		}
		r.logger.Error("Error inserting user", zap.Error(err), zap.String("email", email))
		return uuid.Nil, fmt.Errorf("database error registering user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	r.logger.Info("User registered successfully", zap.String("userID", userID.String()))
	return userID, nil
}

// StoreRefreshToken implements auth.AuthRepo.
func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`
	_, err := r.pgpool.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		r.logger.Error("Error storing refresh token", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("database error storing refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshTokenAndGetUserID implements auth.AuthRepo.
func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	var revokedAt *time.Time

	query := `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token = $1`
	err := r.pgpool.QueryRow(ctx, query, refreshToken).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("refresh token not found: %w", models.ErrUnauthenticated)
		}
		r.logger.Error("Error querying refresh token", zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error validating refresh token: %w", err)
	}

	if revokedAt != nil {
		return uuid.Nil, fmt.Errorf("refresh token has been revoked: %w", models.ErrUnauthenticated)
	}
	if time.Now().After(expiresAt) {
		return uuid.Nil, fmt.Errorf("refresh token has expired: %w", models.ErrUnauthenticated)
	}

	return userID, nil
}

// InvalidateRefreshToken implements auth.AuthRepo. Revoking an unknown or
// already revoked token is not an error.
func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`
	tag, err := r.pgpool.Exec(ctx, query, refreshToken)
	if err != nil {
		r.logger.Error("Error invalidating refresh token", zap.Error(err))
		return fmt.Errorf("database error invalidating token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Refresh token not found or already invalidated")
	}
	return nil
}

// GetUserIDByProvider returns the linked user, or uuid.Nil when the identity is unknown.
func (r *PostgresAuthRepo) GetUserIDByProvider(ctx context.Context, provider, providerUserID string) (uuid.UUID, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserIDByProvider",
		trace.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("provider_user_id", providerUserID),
		))
	defer span.End()

	l := r.logger.With(zap.String("method", "GetUserIDByProvider"))

	var userID uuid.UUID
	query := `SELECT user_id FROM user_providers WHERE provider = $1 AND provider_user_id = $2`
	err := r.pgpool.QueryRow(ctx, query, provider, providerUserID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.Debug("No user found for provider", zap.String("provider", provider))
			span.SetStatus(codes.Ok, "No user found")
			return uuid.Nil, nil
		}
		l.Error("Failed to query user by provider", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return uuid.Nil, fmt.Errorf("database error resolving provider identity: %w", err)
	}

	span.SetStatus(codes.Ok, "User found")
	return userID, nil
}

// CreateUser inserts a password-less user and fills in the generated ID.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, user *models.UserAuth) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser",
		trace.WithAttributes(attribute.String("username", user.Username)))
	defer span.End()

	l := r.logger.With(zap.String("method", "CreateUser"))

	query := `INSERT INTO users (username, email) VALUES ($1, $2) RETURNING id, is_admin`
	err := r.pgpool.QueryRow(ctx, query, user.Username, user.Email).Scan(&user.ID, &user.IsAdmin)
	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			l.Warn("Email already exists", zap.String("email", user.Email))
			span.SetStatus(codes.Error, "Email conflict")
			return fmt.Errorf("email or username already exists: %w", models.ErrConflict)
		}
		l.Error("Failed to create user", zap.Error(err))
		span.SetStatus(codes.Error, "Database insert failed")
		return fmt.Errorf("database error creating user: %w", err)
	}

	l.Info("User created successfully", zap.String("user_id", user.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return nil
}

// CreateUserProvider links a user to an OAuth provider identity.
func (r *PostgresAuthRepo) CreateUserProvider(ctx context.Context, userID uuid.UUID, provider, providerUserID string) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUserProvider",
		trace.WithAttributes(
			attribute.String("user_id", userID.String()),
			attribute.String("provider", provider),
		))
	defer span.End()

	l := r.logger.With(zap.String("method", "CreateUserProvider"))

	query := `INSERT INTO user_providers (user_id, provider, provider_user_id) VALUES ($1, $2, $3)`
	_, err := r.pgpool.Exec(ctx, query, userID, provider, providerUserID)
	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			l.Warn("Provider link already exists", zap.String("provider", provider))
			span.SetStatus(codes.Error, "Provider link conflict")
			return fmt.Errorf("provider identity already linked: %w", models.ErrConflict)
		}
		l.Error("Failed to create provider link", zap.Error(err))
		span.SetStatus(codes.Error, "Database insert failed")
		return fmt.Errorf("database error linking provider: %w", err)
	}

	span.SetStatus(codes.Ok, "Provider linked")
	return nil
}
