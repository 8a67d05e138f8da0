package domain

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// BaseHandler carries what every JSON handler needs.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// RespondError maps a domain error to its status code. Only validation
// messages are returned to the client; everything else is logged.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	var dup *models.DuplicateError

	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "a venue already exists near this location",
			"duplicate": dup.Existing,
		})
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthenticated):
		middleware.AbortUnauthenticated(c)
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot change this venue"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, models.ErrGeocodeFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not find the address on the map, please verify it"})
	default:
		h.Logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ParseID reads a uuid path parameter, answering 400 when malformed.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.Logger.Debug("Invalid id", zap.String("param", param), zap.String("value", c.Param(param)))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
