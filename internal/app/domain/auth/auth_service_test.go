package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/config"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (uuid.UUID, error) {
	args := m.Called(ctx, username, email, hashedPassword)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, user *models.UserAuth) error {
	args := m.Called(ctx, user)
	if id, ok := args.Get(1).(uuid.UUID); ok {
		user.ID = id
	}
	return args.Error(0)
}

func (m *MockAuthRepo) CreateUserProvider(ctx context.Context, userID uuid.UUID, provider, providerUserID string) error {
	args := m.Called(ctx, userID, provider, providerUserID)
	return args.Error(0)
}

func (m *MockAuthRepo) GetUserIDByProvider(ctx context.Context, provider, providerUserID string) (uuid.UUID, error) {
	args := m.Called(ctx, provider, providerUserID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:       "test-access-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "test-issuer",
		Audience:        "test-audience",
	}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		user := &models.UserAuth{ID: uuid.New(), Username: "testuser", Email: "test@example.com", Password: hashed(t, "password123")}

		mockRepo.On("GetUserByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", mock.Anything, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		tokens, err := service.Login(ctx, " Test@Example.com ", "password123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, tokens.UserID)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)

		claims, err := service.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		mockRepo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, models.ErrNotFound).Once()

		tokens, err := service.Login(ctx, "nobody@example.com", "password123")
		assert.Nil(t, tokens)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		user := &models.UserAuth{ID: uuid.New(), Email: "test@example.com", Password: hashed(t, "correctpassword")}
		mockRepo.On("GetUserByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()

		_, err := service.Login(ctx, "test@example.com", "wrongpassword")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ProviderOnlyAccount", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		user := &models.UserAuth{ID: uuid.New(), Email: "oauth@example.com"}
		mockRepo.On("GetUserByEmail", mock.Anything, "oauth@example.com").Return(user, nil).Once()

		_, err := service.Login(ctx, "oauth@example.com", "")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		id := uuid.New()
		mockRepo.On("Register", mock.Anything, "mama", "mama@example.com", mock.MatchedBy(func(h string) bool {
			return bcrypt.CompareHashAndPassword([]byte(h), []byte("password123")) == nil
		})).Return(id, nil).Once()

		got, err := service.Register(ctx, "mama", "Mama@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, id, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())

		_, err := service.Register(ctx, "mama", "mama@example.com", "short")
		assert.ErrorIs(t, err, models.ErrValidation)
		mockRepo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		mockRepo.On("Register", mock.Anything, "mama", "mama@example.com", mock.Anything).
			Return(uuid.Nil, models.ErrConflict).Once()

		_, err := service.Register(ctx, "mama", "mama@example.com", "password123")
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestSignInWithProvider(t *testing.T) {
	ctx := context.Background()
	identity := ProviderIdentity{Provider: "google", ProviderUserID: "g-123", Email: "kid@example.com", Username: "kid"}

	t.Run("first sign-in creates and links a user", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		newID := uuid.New()

		mockRepo.On("GetUserIDByProvider", mock.Anything, "google", "g-123").Return(uuid.Nil, nil).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.UserAuth) bool {
			return u.Email == "kid@example.com" && u.Username == "kid"
		})).Return(nil, newID).Once()
		mockRepo.On("CreateUserProvider", mock.Anything, newID, "google", "g-123").Return(nil).Once()
		mockRepo.On("StoreRefreshToken", mock.Anything, newID, mock.Anything, mock.Anything).Return(nil).Once()

		tokens, err := service.SignInWithProvider(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, newID, tokens.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("returning user is looked up", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		existing := &models.UserAuth{ID: uuid.New(), Username: "kid", Email: "kid@example.com"}

		mockRepo.On("GetUserIDByProvider", mock.Anything, "google", "g-123").Return(existing.ID, nil).Once()
		mockRepo.On("GetUserByID", mock.Anything, existing.ID).Return(existing, nil).Once()
		mockRepo.On("StoreRefreshToken", mock.Anything, existing.ID, mock.Anything, mock.Anything).Return(nil).Once()

		tokens, err := service.SignInWithProvider(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, tokens.UserID)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("incomplete identity", func(t *testing.T) {
		service := NewAuthService(new(MockAuthRepo), testJWTConfig(), zap.NewNop())
		_, err := service.SignInWithProvider(ctx, ProviderIdentity{Provider: "google"})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestRefreshSession(t *testing.T) {
	ctx := context.Background()
	user := &models.UserAuth{ID: uuid.New(), Username: "testuser", Email: "test@example.com"}

	t.Run("rotates the refresh token", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())

		mockRepo.On("ValidateRefreshTokenAndGetUserID", mock.Anything, "old").Return(user.ID, nil).Once()
		mockRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("InvalidateRefreshToken", mock.Anything, "old").Return(nil).Once()

		tokens, err := service.RefreshSession(ctx, "old")
		require.NoError(t, err)
		assert.NotEqual(t, "old", tokens.RefreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("revoked token", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())
		mockRepo.On("ValidateRefreshTokenAndGetUserID", mock.Anything, "gone").
			Return(uuid.Nil, errors.Join(errors.New("revoked"), models.ErrUnauthenticated)).Once()

		_, err := service.RefreshSession(ctx, "gone")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}

func TestLogout(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	service := NewAuthService(mockRepo, testJWTConfig(), zap.NewNop())

	mockRepo.On("InvalidateRefreshToken", mock.Anything, "token").Return(nil).Once()
	require.NoError(t, service.Logout(context.Background(), "token"))
	require.NoError(t, service.Logout(context.Background(), ""))
	mockRepo.AssertNumberOfCalls(t, "InvalidateRefreshToken", 1)
}

func TestValidateAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	service := NewAuthService(new(MockAuthRepo), cfg, zap.NewNop())

	t.Run("wrong secret", func(t *testing.T) {
		other := cfg
		other.SecretKey = "someone-else"
		token, err := NewJWTService(other).GenerateToken(uuid.New(), "a@b.c", "a")
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("expired", func(t *testing.T) {
		issuer := NewJWTService(cfg)
		issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := issuer.GenerateToken(uuid.New(), "a@b.c", "a")
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := cfg
		other.Audience = "another-app"
		token, err := NewJWTService(other).GenerateToken(uuid.New(), "a@b.c", "a")
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
	})
}
