package likes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
)

type Handler struct {
	*domain.BaseHandler
	ledger Ledger
}

func NewHandler(ledger Ledger, base *domain.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, ledger: ledger}
}

// Toggle handles POST /api/venues/:id/like.
func (h *Handler) Toggle(c *gin.Context) {
	venueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	state, err := h.ledger.Toggle(c.Request.Context(), venueID)
	if err != nil {
		h.Logger.Debug("Like toggle refused", zap.String("venue_id", venueID.String()), zap.Error(err))
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// State handles GET /api/venues/:id/like.
func (h *Handler) State(c *gin.Context) {
	venueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	state, err := h.ledger.State(c.Request.Context(), venueID)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
