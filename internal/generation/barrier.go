package generation

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// barrier tracks a batch's in-flight work and the records it wrote, so the
// ranking pass can verify it runs strictly after every write.
type barrier struct {
	pending atomic.Int64
	mu      sync.Mutex
	written []uuid.UUID
}

func (b *barrier) enter() {
	b.pending.Add(1)
}

func (b *barrier) leave() {
	b.pending.Add(-1)
}

func (b *barrier) record(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.written = append(b.written, id)
}

func (b *barrier) drained() bool {
	return b.pending.Load() == 0
}

func (b *barrier) ids() []uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]uuid.UUID, len(b.written))
	copy(out, b.written)
	return out
}
