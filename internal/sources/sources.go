// Package sources reads the learning-platform records that teacher scores are
// computed from. The Postgres implementation is read-only; the platform owns
// these tables.
package sources

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
)

// Errors returned by the teacher directory.
var (
	ErrTeacherNotFound = errors.New("teacher not found")
)

// MapHTTPStatus maps source errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrTeacherNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Teacher is a scored instructor.
type Teacher struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Directory resolves teachers.
type Directory interface {
	Teacher(ctx context.Context, id uuid.UUID) (Teacher, error)
	ActiveTeachers(ctx context.Context) ([]Teacher, error)
}

// Neutral is an engagement and development source with no telemetry. Every
// call reports scoring.ErrSignalsUnavailable so the calculator substitutes
// its neutral baseline.
type Neutral struct{}

func (Neutral) Engagement(context.Context, uuid.UUID, scoring.Period) (scoring.EngagementSignals, error) {
	return scoring.EngagementSignals{}, scoring.ErrSignalsUnavailable
}

func (Neutral) Development(context.Context, uuid.UUID, scoring.Period) (scoring.DevelopmentSignals, error) {
	return scoring.DevelopmentSignals{}, scoring.ErrSignalsUnavailable
}

var (
	_ scoring.EngagementSource  = Neutral{}
	_ scoring.DevelopmentSource = Neutral{}
)
