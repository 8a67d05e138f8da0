// Package likes tracks which principal liked which venue and keeps the
// per-venue like count in step.
package likes

import (
	"context"

	"github.com/google/uuid"
)

// State is what a principal sees for one venue.
type State struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Toggled returns the state after one toggle. The count never drops below
// zero.
func (s State) Toggled() State {
	if s.Liked {
		return s.Unliked()
	}
	return State{Liked: true, Count: s.Count + 1}
}

// Unliked returns the state with the like removed.
func (s State) Unliked() State {
	return State{Liked: false, Count: max(s.Count-1, 0)}
}

// Ledger is one like strategy.
type Ledger interface {
	// ActorID returns the principal likes are recorded against.
	ActorID(ctx context.Context) (string, error)
	Toggle(ctx context.Context, venueID uuid.UUID) (State, error)
	State(ctx context.Context, venueID uuid.UUID) (State, error)
}
