package generation

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/internal/sources"
	"github.com/JaimeStill/merit/pkg/storage"
)

// Domain errors for score generation.
var (
	// ErrRankingBarrier means ranking was attempted before every record
	// written by the batch was visible in the cohort.
	ErrRankingBarrier = errors.New("ranking barrier violated")
	ErrInvalidCommand = errors.New("invalid generation command")
	// ErrGenerationPanic wraps a panic recovered while scoring a teacher.
	ErrGenerationPanic = errors.New("score generation panicked")
)

// MapHTTPStatus maps generation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCommand), errors.Is(err, scoring.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, sources.ErrTeacherNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scoring.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scores.ErrFinal):
		return http.StatusConflict
	case scores.IsUnavailable(err), errors.Is(err, storage.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
