package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type RegisterRequest struct {
	Username        string `json:"username" form:"username" binding:"required"`
	Email           string `json:"email" form:"email" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type AuthHandlers struct {
	*domain.BaseHandler
	authService   AuthService
	sessions      *SessionManager
	secureCookies bool
}

func NewAuthHandlers(authService AuthService, sessions *SessionManager, secureCookies bool, base *domain.BaseHandler) *AuthHandlers {
	return &AuthHandlers{
		BaseHandler:   base,
		authService:   authService,
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

// SignUp registers an account and signs it in.
func (h *AuthHandlers) SignUp(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	if _, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		h.RespondError(c, err)
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.startSession(c, tokens)
	c.JSON(http.StatusCreated, gin.H{"user_id": tokens.UserID, "access_token": tokens.AccessToken})
}

// SignIn exchanges credentials for tokens, set as cookies and returned in the body.
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		h.RespondError(c, err)
		return
	}
	h.startSession(c, tokens)
	c.JSON(http.StatusOK, gin.H{"user_id": tokens.UserID, "access_token": tokens.AccessToken})
}

// SignOut revokes the refresh token and clears the cookies. It succeeds even
// when nobody was signed in.
func (h *AuthHandlers) SignOut(c *gin.Context) {
	refresh, _ := c.Cookie(RefreshTokenCookie)
	if err := h.authService.Logout(c.Request.Context(), refresh); err != nil {
		h.Logger.Warn("Refresh token revocation failed during sign-out", zap.Error(err))
	}

	if user := middleware.GetUserFromContext(c); user != nil {
		h.sessions.Publish(SessionEvent{Kind: SignedOut, UserID: user.ID})
	}
	h.clearCookies(c)
	c.Status(http.StatusNoContent)
}

// Refresh rotates the refresh token.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refresh == "" {
		middleware.AbortUnauthenticated(c)
		return
	}

	tokens, err := h.authService.RefreshSession(c.Request.Context(), refresh)
	if err != nil {
		h.clearCookies(c)
		h.RespondError(c, err)
		return
	}
	h.setCookies(c, tokens)
	c.JSON(http.StatusOK, gin.H{"access_token": tokens.AccessToken})
}

// Session reports who the request resolved to.
func (h *AuthHandlers) Session(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": user != nil,
		"user":          user,
		"device_admin":  middleware.IsDeviceAdmin(c),
	})
}

func (h *AuthHandlers) startSession(c *gin.Context, tokens *Tokens) {
	h.setCookies(c, tokens)
	h.sessions.Publish(SessionEvent{Kind: SignedIn, UserID: tokens.UserID})
}

func (h *AuthHandlers) setCookies(c *gin.Context, tokens *Tokens) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, tokens.AccessToken, int(tokens.RefreshTTL.Seconds()), "/", "", h.secureCookies, true)
	c.SetCookie(RefreshTokenCookie, tokens.RefreshToken, int(tokens.RefreshTTL.Seconds()), "/auth", "", h.secureCookies, true)
}

func (h *AuthHandlers) clearCookies(c *gin.Context) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/auth", "", h.secureCookies, true)
}
