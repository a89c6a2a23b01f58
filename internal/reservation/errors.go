package reservation

import (
	"errors"

	"companion-booking-backend/internal/store"
)

// ErrValidation is returned for malformed input such as hours outside [1,12].
// Handlers should translate this into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition is returned when the requested status is not reachable
// from the current one, including any change to a completed or cancelled reservation.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrManagerUnavailable is returned when the manager has no matching window,
// is not active, or already holds a conflicting reservation.
var ErrManagerUnavailable = errors.New("manager unavailable")

// ErrForbidden is returned when the actor may not perform the operation on the reservation.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound and ErrConflict come from the persistence layer. ErrConflict is the
// only retryable error of this package.
var (
	ErrNotFound = store.ErrNotFound
	ErrConflict = store.ErrConflict
)
