package scores

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/pagination"
)

// Store persists score records. Records are never deleted: regeneration
// supersedes, and retirement archives. Failures are returned as
// *PersistenceError unless they are domain errors such as ErrNotFound.
type Store interface {
	// Upsert writes rec as the current record for its teacher and period,
	// superseding any prior non-archived record in the same transaction.
	Upsert(ctx context.Context, rec Record) (*Record, error)

	// FindLatest returns the teacher's record of periodType for the latest
	// period starting before before. Within that period the most recently
	// generated record wins, so an archived record still counts while
	// superseded ones do not.
	FindLatest(ctx context.Context, teacherID uuid.UUID, periodType scoring.PeriodType, before time.Time) (*Record, error)

	// FindCohort returns the non-archived records of a period ordered by
	// generation time.
	FindCohort(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time) ([]Record, error)

	// UpdateRankings applies rankings in one transaction and returns the
	// number of records whose ranking changed.
	UpdateRankings(ctx context.Context, updates []RankingUpdate) (int, error)

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Record], error)

	// Mutate loads the record, applies fn and writes the result atomically.
	// Nothing is written when fn returns an error.
	Mutate(ctx context.Context, id uuid.UUID, fn func(*Record) error) (*Record, error)

	Ping(ctx context.Context) error
}
