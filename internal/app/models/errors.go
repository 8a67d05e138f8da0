package models

import (
	"errors"
	"fmt"
)

// Domain specific errors shared by the venue, like and auth packages.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrGeocodeFailed   = errors.New("could not resolve address to coordinates")
	ErrDuplicate       = errors.New("a venue already exists near this location")
)

// DuplicateError carries the existing venue that blocked a create.
type DuplicateError struct {
	Existing Venue
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("venue %q (%s) is within the duplicate radius", e.Existing.Name, e.Existing.ID)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}
