// Package admin verifies the shared admin password for device mode.
package admin

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
)

type VerifyRequest struct {
	Password string `json:"password" form:"password"`
}

// VerifyResponse is the body of every verify answer.
type VerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

const (
	msgServerError       = "server error"
	msgPasswordIncorrect = "password incorrect"
)

type Handler struct {
	*domain.BaseHandler
	secret []byte
}

// NewHandler keeps a digest of the configured password. An empty password
// leaves verification disabled.
func NewHandler(password string, base *domain.BaseHandler) *Handler {
	h := &Handler{BaseHandler: base}
	if password != "" {
		sum := sha256.Sum256([]byte(password))
		h.secret = sum[:]
	}
	return h
}

// Verify handles POST /api/admin/verify.
func (h *Handler) Verify(c *gin.Context) {
	l := h.Logger.With(zap.String("method", "Verify"))

	var req VerifyRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn("Malformed verify request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, VerifyResponse{Message: msgServerError})
		return
	}

	if h.secret == nil {
		l.Error("Admin password is not configured")
		c.JSON(http.StatusInternalServerError, VerifyResponse{Message: msgServerError})
		return
	}

	// Digests have equal length, so the comparison time does not depend on the input.
	sum := sha256.Sum256([]byte(req.Password))
	if subtle.ConstantTimeCompare(sum[:], h.secret) != 1 {
		l.Info("Admin verification failed", zap.String("device_id", middleware.GetDeviceID(c)))
		c.JSON(http.StatusUnauthorized, VerifyResponse{Message: msgPasswordIncorrect})
		return
	}

	if err := middleware.SetDeviceAdmin(c, true); err != nil {
		l.Error("Failed to persist admin flag", zap.Error(err))
		c.JSON(http.StatusInternalServerError, VerifyResponse{Message: msgServerError})
		return
	}

	l.Info("Device entered admin mode", zap.String("device_id", middleware.GetDeviceID(c)))
	c.JSON(http.StatusOK, VerifyResponse{Success: true})
}

// Logout handles POST /api/admin/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := middleware.SetDeviceAdmin(c, false); err != nil {
		h.Logger.Error("Failed to clear admin flag", zap.Error(err))
		c.JSON(http.StatusInternalServerError, VerifyResponse{Message: msgServerError})
		return
	}
	c.JSON(http.StatusOK, VerifyResponse{Success: true})
}

// CacheClearer drops rebuildable caches.
type CacheClearer interface {
	ClearAll()
}

// ClearCaches handles POST /api/admin/cache/clear. Routes must guard it with
// middleware.RequireAdmin.
func (h *Handler) ClearCaches(caches CacheClearer) gin.HandlerFunc {
	return func(c *gin.Context) {
		caches.ClearAll()
		h.Logger.Info("Caches cleared", zap.String("device_id", middleware.GetDeviceID(c)))
		c.JSON(http.StatusOK, VerifyResponse{Success: true})
	}
}
