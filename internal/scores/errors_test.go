package scores_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JaimeStill/merit/internal/scores"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", scores.ErrNotFound, http.StatusNotFound},
		{"duplicate", scores.ErrDuplicate, http.StatusConflict},
		{"final", scores.ErrFinal, http.StatusConflict},
		{"invalid transition", scores.ErrInvalidTransition, http.StatusConflict},
		{"invalid review", scores.ErrInvalidReview, http.StatusBadRequest},
		{"invalid goals", scores.ErrInvalidGoals, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("review: %w", scores.ErrNotFound), http.StatusNotFound},
		{"unavailable", &scores.PersistenceError{Op: "ping", Err: errors.New("refused"), Unavailable: true}, http.StatusServiceUnavailable},
		{"statement failure", &scores.PersistenceError{Op: "insert", Err: errors.New("bad")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scores.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("generate: %w", &scores.PersistenceError{Op: "upsert", Err: cause, Unavailable: true})

	if !errors.Is(err, scores.ErrPersistence) {
		t.Error("errors.Is(err, ErrPersistence) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if !scores.IsUnavailable(err) {
		t.Error("IsUnavailable() = false")
	}
	if scores.IsUnavailable(cause) {
		t.Error("IsUnavailable(cause) = true for a bare error")
	}
}
