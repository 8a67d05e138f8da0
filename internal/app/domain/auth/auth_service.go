package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

const minPasswordLength = 8

// Tokens is the result of a successful sign-in or refresh.
type Tokens struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

// ProviderIdentity is what an OAuth provider tells us about a user once the
// handshake has completed.
type ProviderIdentity struct {
	Provider       string
	ProviderUserID string
	Email          string
	Username       string
}

// AuthService defines the business logic contract.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (*Tokens, error)
	SignInWithProvider(ctx context.Context, identity ProviderIdentity) (*Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*Tokens, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ValidateAccessToken(token string) (*Claims, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	jwt    *JWTService
	cfg    config.JWTConfig
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo AuthRepo, cfg config.JWTConfig, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwt:    NewJWTService(cfg),
		cfg:    cfg,
	}
}

// Register hashes the password and stores a new user.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))

	ctx, span := otel.Tracer("AuthService").Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("username", username),
	))
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || !strings.Contains(email, "@") {
		return uuid.Nil, fmt.Errorf("username and a valid email are required: %w", models.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return uuid.Nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, models.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return uuid.Nil, errors.New("could not process password")
	}

	userID, err := s.repo.Register(ctx, username, email, string(hashed))
	if err != nil {
		l.Warn("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return uuid.Nil, fmt.Errorf("registration failed: %w", err)
	}

	metrics.Get().AuthRequestsTotal.Add(ctx, 1)
	l.Info("Registration successful", zap.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// Login validates credentials, generates tokens, stores refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*Tokens, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		l.Warn("GetUserByEmail failed", zap.Error(err))
		// Don't reveal whether the user exists.
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}
	if user.Password == "" {
		l.Warn("Password sign-in attempted on provider-only account")
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("Failed to issue tokens", zap.Error(err))
		return nil, err
	}

	metrics.Get().AuthRequestsTotal.Add(ctx, 1)
	l.Info("Login successful", zap.String("userID", user.ID.String()))
	return tokens, nil
}

// SignInWithProvider finds the user linked to the provider identity, creating
// and linking one on first sign-in.
func (s *AuthServiceImpl) SignInWithProvider(ctx context.Context, identity ProviderIdentity) (*Tokens, error) {
	l := s.logger.With(zap.String("method", "SignInWithProvider"), zap.String("provider", identity.Provider))

	ctx, span := otel.Tracer("AuthService").Start(ctx, "AuthService.SignInWithProvider", trace.WithAttributes(
		attribute.String("provider", identity.Provider),
	))
	defer span.End()

	if identity.Provider == "" || identity.ProviderUserID == "" {
		return nil, fmt.Errorf("provider identity is incomplete: %w", models.ErrValidation)
	}

	userID, err := s.repo.GetUserIDByProvider(ctx, identity.Provider, identity.ProviderUserID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to resolve provider identity: %w", err)
	}

	var user *models.UserAuth
	if userID == uuid.Nil {
		user = &models.UserAuth{
			Username: identity.Username,
			Email:    strings.ToLower(strings.TrimSpace(identity.Email)),
		}
		if user.Username == "" {
			user.Username = identity.Provider + "_" + identity.ProviderUserID
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to create provider user: %w", err)
		}
		if err := s.repo.CreateUserProvider(ctx, user.ID, identity.Provider, identity.ProviderUserID); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to link provider: %w", err)
		}
		l.Info("Created user for provider identity", zap.String("userID", user.ID.String()))
	} else {
		user, err = s.repo.GetUserByID(ctx, userID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("linked user unavailable: %w", models.ErrUnauthenticated)
		}
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issue failed")
		return nil, err
	}
	metrics.Get().AuthRequestsTotal.Add(ctx, 1)
	span.SetStatus(codes.Ok, "Signed in")
	return tokens, nil
}

// RefreshSession validates refresh token, generates new tokens, rotates refresh token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (*Tokens, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))
	l.Debug("Attempting token refresh")

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid or expired refresh token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user after refresh token validation", zap.String("userID", userID.String()), zap.Error(err))
		if invErr := s.repo.InvalidateRefreshToken(ctx, refreshToken); invErr != nil {
			l.Warn("Failed to revoke orphaned refresh token", zap.Error(invErr))
		}
		return nil, fmt.Errorf("app error retrieving user during refresh: %w", models.ErrUnauthenticated)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("Failed to issue new tokens", zap.Error(err))
		return nil, err
	}

	// Rotation: the old token is single use.
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.Error(err))
		return nil, fmt.Errorf("failed to invalidate old refresh token: %w", err)
	}

	l.Info("Token refresh successful", zap.String("userID", user.ID.String()))
	return tokens, nil
}

// Logout invalidates the provided refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Error("Failed to invalidate refresh token", zap.Error(err))
		return fmt.Errorf("logout failed: %w", err)
	}
	l.Info("Logout successful")
	return nil
}

// GetUserByID returns the active user, including the admin flag.
func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user.Principal(), nil
}

// ValidateAccessToken parses a signed access token.
func (s *AuthServiceImpl) ValidateAccessToken(token string) (*Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %v: %w", err, models.ErrUnauthenticated)
	}
	return claims, nil
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *models.UserAuth) (*Tokens, error) {
	access, err := s.jwt.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, fmt.Errorf("app error generating tokens: %w", err)
	}

	refresh := uuid.NewString()
	ttl := s.getRefreshTTL()
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refresh, time.Now().Add(ttl)); err != nil {
		return nil, fmt.Errorf("app error storing session: %w", err)
	}

	return &Tokens{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   ttl,
	}, nil
}

func (s *AuthServiceImpl) getRefreshTTL() time.Duration {
	if s.cfg.RefreshTokenTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.cfg.RefreshTokenTTL
}
