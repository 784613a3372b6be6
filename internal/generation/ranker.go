package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/events"
	"github.com/JaimeStill/merit/pkg/metrics"
)

// EventCohortRanked is published after every ranking pass that wrote a cohort.
const EventCohortRanked = "cohort.ranked"

// RankResult summarizes one ranking pass.
type RankResult struct {
	PeriodType  scoring.PeriodType `json:"period_type"`
	PeriodStart time.Time          `json:"period_start"`
	Total       int                `json:"total"`
	Changed     int                `json:"changed"`
}

// Ranker ranks every current record of a period against its cohort.
type Ranker struct {
	store     scores.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	strict    bool
	now       func() time.Time
}

// NewRanker creates a Ranker. When strict is set, a barrier violation panics.
func NewRanker(
	store scores.Store,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	strict bool,
) *Ranker {
	return &Ranker{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With("system", "ranker"),
		strict:    strict,
		now:       time.Now,
	}
}

// Rank reads the cohort of periodType starting at periodStart, ranks it and
// writes every ranking in one transaction.
func (r *Ranker) Rank(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time) (*RankResult, error) {
	cohort, err := r.store.FindCohort(ctx, periodType, periodStart)
	if err != nil {
		r.metrics.RankingRuns.WithLabelValues(string(periodType), metrics.RankingFailed).Inc()
		return nil, fmt.Errorf("read cohort: %w", err)
	}
	return r.rank(ctx, periodType, periodStart, cohort)
}

// RankBatch ranks the period written by a batch. It verifies first that the
// batch has no work in flight and that every record it wrote is part of the
// cohort being ranked.
func (r *Ranker) RankBatch(ctx context.Context, period scoring.Period, b *barrier) (*RankResult, error) {
	// Assertion: the orchestrator only calls RankBatch after its worker group
	// has returned, so pending work here means that ordering was broken.
	if !b.drained() {
		return nil, r.violation(fmt.Sprintf("%d writes in flight", b.pending.Load()))
	}

	cohort, err := r.store.FindCohort(ctx, period.Type, period.Start)
	if err != nil {
		r.metrics.RankingRuns.WithLabelValues(string(period.Type), metrics.RankingFailed).Inc()
		return nil, fmt.Errorf("read cohort: %w", err)
	}

	present := make(map[uuid.UUID]struct{}, len(cohort))
	for _, rec := range cohort {
		present[rec.ID] = struct{}{}
	}
	for _, id := range b.ids() {
		if _, ok := present[id]; !ok {
			return nil, r.violation(fmt.Sprintf("score %s missing from cohort", id))
		}
	}

	return r.rank(ctx, period.Type, period.Start, cohort)
}

func (r *Ranker) rank(
	ctx context.Context,
	periodType scoring.PeriodType,
	periodStart time.Time,
	cohort []scores.Record,
) (*RankResult, error) {
	result := &RankResult{PeriodType: periodType, PeriodStart: periodStart, Total: len(cohort)}
	label := string(periodType)

	r.metrics.CohortSize.WithLabelValues(label).Set(float64(len(cohort)))

	if len(cohort) == 0 {
		r.logger.Info("ranking skipped: empty cohort", "period_type", periodType, "period_start", periodStart)
		r.metrics.RankingRuns.WithLabelValues(label, metrics.RankingEmpty).Inc()
		return result, nil
	}

	entries := make([]scoring.RankEntry, len(cohort))
	for i, rec := range cohort {
		entries[i] = rec.RankEntry()
	}

	rankings := scoring.Rank(entries)
	updates := make([]scores.RankingUpdate, len(cohort))
	for i, rec := range cohort {
		updates[i] = scores.RankingUpdate{ID: rec.ID, Ranking: rankings[i]}
	}

	changed, err := r.store.UpdateRankings(ctx, updates)
	if err != nil {
		r.metrics.RankingRuns.WithLabelValues(label, metrics.RankingFailed).Inc()
		return nil, fmt.Errorf("update rankings: %w", err)
	}
	result.Changed = changed

	r.metrics.RankingRuns.WithLabelValues(label, metrics.RankingRanked).Inc()
	r.logger.Info("cohort ranked",
		"period_type", periodType,
		"period_start", periodStart,
		"total", result.Total,
		"changed", result.Changed,
	)

	err = r.publisher.Publish(ctx, events.Event{
		Type:       EventCohortRanked,
		Key:        fmt.Sprintf("%s/%s", periodType, periodStart.Format(time.DateOnly)),
		OccurredAt: r.now(),
		Payload:    result,
	})
	if err != nil {
		r.logger.Warn("event publish failed", "type", EventCohortRanked, "error", err)
	}

	return result, nil
}

func (r *Ranker) violation(detail string) error {
	r.metrics.BarrierViolations.Inc()
	r.logger.Error("ranking barrier violated", "detail", detail)

	err := fmt.Errorf("%w: %s", ErrRankingBarrier, detail)
	if r.strict {
		panic(err)
	}
	return err
}
