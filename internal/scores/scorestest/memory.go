// Package scorestest provides an in-memory scores.Store for tests.
package scorestest

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/pagination"
)

// Store is an in-memory scores.Store following the same supersede, ranking
// and mutation rules as the Postgres store. Records are copied on the way in
// and out.
type Store struct {
	mu          sync.Mutex
	records     []scores.Record
	upsertFails map[uuid.UUID]error
	pingErr     error
	rankErr     error
	upserts     int
	now         func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		upsertFails: make(map[uuid.UUID]error),
		now:         time.Now,
	}
}

// FailUpsert makes upserts for teacherID return err.
func (s *Store) FailUpsert(teacherID uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertFails[teacherID] = err
}

// FailPing makes Ping return err.
func (s *Store) FailPing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

// FailRankings makes UpdateRankings return err.
func (s *Store) FailRankings(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankErr = err
}

// Upserts returns the number of successful upserts.
func (s *Store) Upserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

// All returns every stored record, archived included, in insertion order.
func (s *Store) All() []scores.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]scores.Record, len(s.records))
	for i, r := range s.records {
		out[i] = clone(r)
	}
	return out
}

func (s *Store) Upsert(ctx context.Context, rec scores.Record) (*scores.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &scores.PersistenceError{Op: "upsert", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsertFails[rec.TeacherID]; err != nil {
		return nil, err
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := s.now()
	next := clone(rec)

	for i := range s.records {
		prior := &s.records[i]
		if !current(*prior, next.TeacherID, next.Period.Type, next.Period.Start) {
			continue
		}
		updated := clone(*prior)
		if err := scores.Supersede(&updated, &next, now); err != nil {
			return nil, err
		}
		*prior = updated
	}

	if next.GeneratedAt.IsZero() {
		next.GeneratedAt = now
	}
	next.UpdatedAt = now

	s.records = append(s.records, next)
	s.upserts++

	out := clone(next)
	return &out, nil
}

func (s *Store) FindLatest(
	_ context.Context,
	teacherID uuid.UUID,
	periodType scoring.PeriodType,
	before time.Time,
) (*scores.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *scores.Record
	for i := range s.records {
		r := &s.records[i]
		if r.TeacherID != teacherID || r.Period.Type != periodType || !r.Period.Start.Before(before) {
			continue
		}
		if latest == nil || newer(*r, *latest) {
			latest = r
		}
	}

	if latest == nil {
		return nil, scores.ErrNotFound
	}
	out := clone(*latest)
	return &out, nil
}

func (s *Store) FindCohort(_ context.Context, periodType scoring.PeriodType, periodStart time.Time) ([]scores.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]scores.Record, 0)
	for _, r := range s.records {
		if r.Period.Type == periodType && r.Period.Start.Equal(periodStart) && r.Status != scores.StatusArchived {
			out = append(out, clone(r))
		}
	}

	slices.SortStableFunc(out, func(a, b scores.Record) int {
		return a.GeneratedAt.Compare(b.GeneratedAt)
	})
	return out, nil
}

func (s *Store) UpdateRankings(_ context.Context, updates []scores.RankingUpdate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rankErr != nil {
		return 0, s.rankErr
	}

	staged := make([]scores.Record, len(s.records))
	for i, r := range s.records {
		staged[i] = clone(r)
	}

	now := s.now()
	changed := 0
	for _, u := range updates {
		idx := slices.IndexFunc(staged, func(r scores.Record) bool {
			return r.ID == u.ID && r.Status != scores.StatusArchived
		})
		if idx < 0 {
			continue
		}
		if scores.ApplyRanking(&staged[idx], u.Ranking, now) {
			changed++
		}
	}

	s.records = staged
	return changed, nil
}

func (s *Store) Find(_ context.Context, id uuid.UUID) (*scores.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == id {
			out := clone(r)
			return &out, nil
		}
	}
	return nil, scores.ErrNotFound
}

func (s *Store) List(
	_ context.Context,
	page pagination.PageRequest,
	filters scores.Filters,
) (*pagination.PageResult[scores.Record], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]scores.Record, 0)
	for _, r := range s.records {
		if !filters.Matches(r) {
			continue
		}
		if page.Search != nil && !search(r, *page.Search) {
			continue
		}
		matched = append(matched, clone(r))
	}

	slices.SortStableFunc(matched, func(a, b scores.Record) int {
		return cmp.Compare(b.GeneratedAt.UnixNano(), a.GeneratedAt.UnixNano())
	})

	start, end := page.Window(len(matched))

	result := pagination.NewPageResult(matched[start:end], len(matched), page.Page, page.PageSize)
	return &result, nil
}

func (s *Store) Mutate(_ context.Context, id uuid.UUID, fn func(*scores.Record) error) (*scores.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.records, func(r scores.Record) bool { return r.ID == id })
	if idx < 0 {
		return nil, scores.ErrNotFound
	}

	updated := clone(s.records[idx])
	if err := fn(&updated); err != nil {
		return nil, err
	}
	s.records[idx] = updated

	out := clone(updated)
	return &out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pingErr != nil {
		var pe *scores.PersistenceError
		if errors.As(s.pingErr, &pe) {
			return s.pingErr
		}
		return &scores.PersistenceError{Op: "ping", Err: s.pingErr, Unavailable: true}
	}
	return nil
}

func current(r scores.Record, teacherID uuid.UUID, periodType scoring.PeriodType, start time.Time) bool {
	return r.TeacherID == teacherID &&
		r.Period.Type == periodType &&
		r.Period.Start.Equal(start) &&
		r.Status != scores.StatusArchived
}

// newer orders by period start, then generation time. Equal times favor a,
// the later insertion.
func newer(a, b scores.Record) bool {
	if c := a.Period.Start.Compare(b.Period.Start); c != 0 {
		return c > 0
	}
	return !a.GeneratedAt.Before(b.GeneratedAt)
}

func search(r scores.Record, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{r.TeacherName, r.Department, r.Category} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func clone(r scores.Record) scores.Record {
	r.AuditLog = slices.Clone(r.AuditLog)
	r.Goals.ActionPlan = slices.Clone(r.Goals.ActionPlan)
	r.Goals.ImprovementAreas = slices.Clone(r.Goals.ImprovementAreas)
	r.Goals.StrengthAreas = slices.Clone(r.Goals.StrengthAreas)
	r.Achievements = scoring.Achievements{
		Badges:       slices.Clone(r.Achievements.Badges),
		Milestones:   slices.Clone(r.Achievements.Milestones),
		Recognitions: slices.Clone(r.Achievements.Recognitions),
		Awards:       slices.Clone(r.Achievements.Awards),
	}
	r.Metadata.DataSources = slices.Clone(r.Metadata.DataSources)
	r.Metrics.StudentRating.Distribution = maps.Clone(r.Metrics.StudentRating.Distribution)
	return r
}

var _ scores.Store = (*Store)(nil)
