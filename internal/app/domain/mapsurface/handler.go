package mapsurface

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/venues"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// VenueSource is the part of the venue service the map reads.
type VenueSource interface {
	List(ctx context.Context, f venues.Filter) ([]models.Venue, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Venue, error)
}

type mapQuery struct {
	venues.Filter
	Focus string `form:"focus"`
}

type Handler struct {
	*domain.BaseHandler
	venues        VenueSource
	defaultCenter [2]float64
}

func NewHandler(source VenueSource, defaultCenter [2]float64, base *domain.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, venues: source, defaultCenter: defaultCenter}
}

// Markers handles GET /api/map.
func (h *Handler) Markers(c *gin.Context) {
	var q mapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}

	var focusID uuid.UUID
	if q.Focus != "" {
		id, err := uuid.Parse(q.Focus)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid focus id"})
			return
		}
		focusID = id
	}

	ctx := c.Request.Context()
	list, err := h.venues.List(ctx, q.Filter)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	surface := NewGeoJSONSurface(h.defaultCenter)
	surface.RenderMarkers(list)
	if focusID != uuid.Nil {
		surface.Focus(h.focusTarget(ctx, list, focusID))
	}
	c.JSON(http.StatusOK, surface.Document())
}

// focusTarget prefers the listed venue and falls back to the store, so a
// venue hidden by the current filter can still be focused.
func (h *Handler) focusTarget(ctx context.Context, list []models.Venue, id uuid.UUID) *models.Venue {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	v, err := h.venues.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.Logger.Warn("Focus venue lookup failed", zap.String("venue_id", id.String()), zap.Error(err))
		}
		return nil
	}
	return v
}

// Events handles POST /api/map/events.
func (h *Handler) Events(c *gin.Context) {
	var sel Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "venue_id and kind are required"})
		return
	}

	if _, err := h.venues.Get(c.Request.Context(), sel.VenueID); err != nil {
		h.RespondError(c, err)
		return
	}

	nav, err := NewGeoJSONSurface(h.defaultCenter).Select(sel)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nav)
}
