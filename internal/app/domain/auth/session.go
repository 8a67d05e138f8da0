package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/app/observability/metrics"
)

const (
	defaultInitTimeout = 5 * time.Second
	subscriberBuffer   = 16
)

// Session is the resolved identity for one request. A nil User means anonymous.
type Session struct {
	User *models.User
}

// Anonymous is the session of a visitor with no valid credentials.
var Anonymous = Session{}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool { return s.User != nil }

// IsAdmin reports whether the signed-in user is an administrator.
func (s Session) IsAdmin() bool { return s.User != nil && s.User.IsAdmin }

type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// SessionEvent notifies subscribers of an identity change.
type SessionEvent struct {
	Kind   EventKind
	UserID uuid.UUID
}

// SessionManager resolves tokens to sessions and fans out sign-in and
// sign-out events. It is created once at startup and injected.
type SessionManager struct {
	service AuthService
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	subs   []chan SessionEvent
	closed bool
}

func NewSessionManager(service AuthService, initTimeout time.Duration, logger *zap.Logger) *SessionManager {
	if initTimeout <= 0 {
		initTimeout = defaultInitTimeout
	}
	return &SessionManager{
		service: service,
		timeout: initTimeout,
		logger:  logger,
	}
}

type resolved struct {
	user *models.User
	err  error
}

// Init resolves token to a session. It always returns within the configured
// timeout; any failure, including the timeout, yields Anonymous.
func (m *SessionManager) Init(ctx context.Context, token string) Session {
	if token == "" {
		return Anonymous
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan resolved, 1)
	go func() {
		user, err := m.resolve(ctx, token)
		done <- resolved{user: user, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			m.logger.Debug("Session resolved as anonymous", zap.Error(r.err))
			return Anonymous
		}
		return Session{User: r.user}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.Get().SessionInitTimeouts.Add(context.Background(), 1)
			m.logger.Warn("Session initialization timed out, continuing as anonymous",
				zap.Duration("timeout", m.timeout))
		}
		return Anonymous
	}
}

func (m *SessionManager) resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := m.service.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.SubjectID()
	if err != nil {
		return nil, err
	}
	// The admin flag comes from the users row, never from the token.
	return m.service.GetUserByID(ctx, userID)
}

// Subscribe returns a channel of identity changes. The channel is closed by Close.
func (m *SessionManager) Subscribe() <-chan SessionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan SessionEvent, subscriberBuffer)
	if m.closed {
		close(ch)
		return ch
	}
	m.subs = append(m.subs, ch)
	return ch
}

// Publish delivers ev to every subscriber without blocking; slow subscribers
// miss the event.
func (m *SessionManager) Publish(ev SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			m.logger.Warn("Session subscriber is full, dropping event", zap.Stringer("kind", ev.Kind))
		}
	}
}

// Close detaches all subscribers.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

// SessionMiddleware resolves every request to a definite session and stores
// the user, if any, on the gin context.
func SessionMiddleware(m *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := m.Init(c.Request.Context(), TokenFromRequest(c))
		if session.Authenticated() {
			middleware.SetUser(c, session.User)
		}
		c.Next()
	}
}
