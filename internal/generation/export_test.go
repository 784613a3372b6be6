package generation

import (
	"time"

	"github.com/google/uuid"
)

// SetClock replaces the clock periods and timestamps are derived from.
func SetClock(sys System, now func() time.Time) {
	sys.(*system).now = now
}

// NewBarrier returns a barrier holding pending in-flight entries and the
// given written ids.
func NewBarrier(pending int, written ...uuid.UUID) *barrier {
	b := &barrier{}
	for range pending {
		b.enter()
	}
	for _, id := range written {
		b.record(id)
	}
	return b
}
