package scores

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for score record operations.
var (
	ErrNotFound          = errors.New("score record not found")
	ErrDuplicate         = errors.New("score record already exists")
	ErrFinal             = errors.New("score record is final")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidReview     = errors.New("invalid review")
	ErrInvalidGoals      = errors.New("invalid goals")
	ErrPersistence       = errors.New("score persistence failed")
)

// PersistenceError wraps a store failure. Unavailable is set when the store
// itself could not be reached rather than a single statement failing.
type PersistenceError struct {
	Op          string
	Err         error
	Unavailable bool
}

func (e *PersistenceError) Error() string {
	if e.Unavailable {
		return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsUnavailable reports whether err carries a PersistenceError marked unavailable.
func IsUnavailable(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Unavailable
}

// MapHTTPStatus maps score domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrFinal),
		errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidReview), errors.Is(err, ErrInvalidGoals):
		return http.StatusBadRequest
	case IsUnavailable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
