package venues

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/domain/likes"
	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// LikeStates reads the like state shown on the detail view.
type LikeStates interface {
	State(ctx context.Context, venueID uuid.UUID) (likes.State, error)
}

type Handler struct {
	*domain.BaseHandler
	service Service
	likes   LikeStates

	// accountOnly drops the device identity so that only signed-in users
	// may post and edit.
	accountOnly bool
}

func NewHandler(service Service, likeStates LikeStates, accountOnly bool, base *domain.BaseHandler) *Handler {
	return &Handler{
		BaseHandler: base,
		service:     service,
		likes:       likeStates,
		accountOnly: accountOnly,
	}
}

type venueDetail struct {
	models.Venue
	Like     *likes.State `json:"like,omitempty"`
	Editable bool         `json:"editable"`
}

// Pointers so that a zero coordinate is accepted and only absence fails.
type duplicateCheckRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

func (h *Handler) actor(c *gin.Context) models.Actor {
	a := middleware.ActorFromContext(c)
	if h.accountOnly {
		a.DeviceID = ""
	}
	return a
}

// List handles GET /api/venues.
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venues": list, "total": len(list)})
}

// Get handles GET /api/venues/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	detail := venueDetail{Venue: *v, Editable: v.EditableBy(h.actor(c))}
	if h.likes != nil {
		state, err := h.likes.State(c.Request.Context(), id)
		if err != nil {
			h.Logger.Warn("Like state unavailable", zap.String("venue_id", id.String()), zap.Error(err))
		} else {
			detail.Like = &state
		}
	}
	c.JSON(http.StatusOK, detail)
}

// Create handles POST /api/venues. ?force=true skips the duplicate check.
func (h *Handler) Create(c *gin.Context) {
	var in models.VenueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and address are required"})
		return
	}
	force := c.Query("force") == "true"

	v, err := h.service.Create(c.Request.Context(), h.actor(c), in, force)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// Update handles PUT /api/venues/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var in models.VenueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and address are required"})
		return
	}

	v, err := h.service.Update(c.Request.Context(), h.actor(c), id, in)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /api/venues/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.actor(c), id); err != nil {
		h.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckDuplicate handles POST /api/duplicates/check.
func (h *Handler) CheckDuplicate(c *gin.Context) {
	var req duplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required and must be in range"})
		return
	}

	dup := h.service.CheckDuplicate(c.Request.Context(), models.Coordinates{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	c.JSON(http.StatusOK, gin.H{"duplicate": dup})
}
