// Package mapsurface turns the filtered directory into marker data for the
// browser map and turns marker clicks back into navigation targets.
package mapsurface

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

const (
	DefaultZoom = 13
	FocusZoom   = 16
)

// SelectionKind is what the user clicked on the map.
type SelectionKind string

const (
	SelectMarker SelectionKind = "select"
	ViewDetails  SelectionKind = "details"
)

var ErrUnknownSelection = errors.New("unknown map selection")

// Selection is an event reported by the map.
type Selection struct {
	VenueID uuid.UUID     `json:"venue_id" binding:"required"`
	Kind    SelectionKind `json:"kind" binding:"required"`
}

// Navigation is where the frontend should go next. Target is opaque to the map.
type Navigation struct {
	Target string `json:"target"`
}

// Surface receives the markers to draw and an optional focus, and maps
// selections to navigation.
type Surface interface {
	RenderMarkers(venues []models.Venue)
	Focus(v *models.Venue)
	Select(sel Selection) (Navigation, error)
}

// Navigate resolves a selection without any rendered state.
func Navigate(sel Selection) (Navigation, error) {
	if sel.VenueID == uuid.Nil {
		return Navigation{}, fmt.Errorf("venue id is required: %w", models.ErrValidation)
	}
	switch sel.Kind {
	case SelectMarker:
		return Navigation{Target: "/?focus=" + sel.VenueID.String()}, nil
	case ViewDetails:
		return Navigation{Target: "/venues/" + sel.VenueID.String()}, nil
	default:
		return Navigation{}, fmt.Errorf("%w %q: %w", ErrUnknownSelection, sel.Kind, models.ErrValidation)
	}
}
