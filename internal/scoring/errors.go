package scoring

import "errors"

// Sentinel errors for score computation.
var (
	// ErrInsufficientData means a teacher has no ratings and no enrollments in the period.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidWeights means category weights are out of range or do not sum to 1.0.
	ErrInvalidWeights = errors.New("invalid weights")
	// ErrInvalidPeriod means a period type or window could not be resolved.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrSignalsUnavailable is returned by engagement and development sources that
	// have no telemetry for a teacher. Callers substitute the neutral baseline.
	ErrSignalsUnavailable = errors.New("signals unavailable")
)
