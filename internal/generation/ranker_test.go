package generation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/merit/internal/generation"
	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scores/scorestest"
	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/metrics"
)

func newRanker(t *testing.T, strict bool) (*generation.Ranker, *scorestest.Store, *recordingPublisher, *metrics.Metrics) {
	t.Helper()
	store := scorestest.New()
	pub := &recordingPublisher{}
	m := metrics.New("merit_test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return generation.NewRanker(store, pub, m, logger, strict), store, pub, m
}

func october(t *testing.T) scoring.Period {
	t.Helper()
	p, err := scoring.ResolvePeriod(scoring.PeriodMonthly, clock)
	if err != nil {
		t.Fatalf("ResolvePeriod() error = %v", err)
	}
	return p
}

func seedCohort(t *testing.T, store *scorestest.Store, period scoring.Period, scoresByDept map[string][]int) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	at := clock
	for dept, values := range scoresByDept {
		for _, v := range values {
			at = at.Add(time.Second)
			rec, err := store.Upsert(context.Background(), scores.Record{
				TeacherID:    uuid.New(),
				Department:   dept,
				Category:     "math",
				Period:       period,
				OverallScore: v,
				Status:       scores.StatusActive,
				GeneratedAt:  at,
			})
			if err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

func TestRankerRank(t *testing.T) {
	ranker, store, pub, m := newRanker(t, false)
	period := october(t)
	seedCohort(t, store, period, map[string][]int{"science": {95, 80, 65}})

	result, err := ranker.Rank(context.Background(), period.Type, period.Start)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if result.Total != 3 || result.Changed != 3 {
		t.Errorf("result = %+v, want total 3 changed 3", result)
	}

	cohort, _ := store.FindCohort(context.Background(), period.Type, period.Start)
	want := map[int]int{95: 100, 80: 67, 65: 33}
	for _, rec := range cohort {
		if got := rec.Analytics.Ranking.Percentile; got != want[rec.OverallScore] {
			t.Errorf("score %d percentile = %d, want %d", rec.OverallScore, got, want[rec.OverallScore])
		}
	}

	again, err := ranker.Rank(context.Background(), period.Type, period.Start)
	if err != nil {
		t.Fatalf("second Rank() error = %v", err)
	}
	if again.Changed != 0 {
		t.Errorf("second pass Changed = %d, want 0", again.Changed)
	}

	for _, rec := range store.All() {
		ranked := 0
		for _, e := range rec.AuditLog {
			if e.Action == scores.ActionRanked {
				ranked++
			}
		}
		if ranked != 1 {
			t.Errorf("record %s has %d ranked entries, want 1", rec.ID, ranked)
		}
	}

	if got := pub.count(generation.EventCohortRanked); got != 2 {
		t.Errorf("cohort.ranked events = %d, want 2", got)
	}
	if got := testutil.ToFloat64(m.RankingRuns.WithLabelValues("monthly", metrics.RankingRanked)); got != 2 {
		t.Errorf("ranked runs = %v, want 2", got)
	}
}

func TestRankerEmptyCohort(t *testing.T) {
	ranker, _, pub, m := newRanker(t, false)
	period := october(t)

	result, err := ranker.Rank(context.Background(), period.Type, period.Start)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
	if got := testutil.ToFloat64(m.RankingRuns.WithLabelValues("monthly", metrics.RankingEmpty)); got != 1 {
		t.Errorf("empty runs = %v, want 1", got)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d events, want 0", len(pub.published))
	}
}

func TestRankerStoreFailure(t *testing.T) {
	ranker, store, _, m := newRanker(t, false)
	period := october(t)
	seedCohort(t, store, period, map[string][]int{"science": {90}})
	store.FailRankings(errors.New("deadlock"))

	if _, err := ranker.Rank(context.Background(), period.Type, period.Start); err == nil {
		t.Fatal("Rank() error = nil, want failure")
	}
	if got := testutil.ToFloat64(m.RankingRuns.WithLabelValues("monthly", metrics.RankingFailed)); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
}

func TestRankerRankBatch(t *testing.T) {
	period := october(t)

	t.Run("drained barrier with visible writes", func(t *testing.T) {
		ranker, store, _, _ := newRanker(t, false)
		ids := seedCohort(t, store, period, map[string][]int{"science": {90, 70}})

		result, err := ranker.RankBatch(context.Background(), period, generation.NewBarrier(0, ids...))
		if err != nil {
			t.Fatalf("RankBatch() error = %v", err)
		}
		if result.Total != 2 {
			t.Errorf("Total = %d, want 2", result.Total)
		}
	})

	tests := []struct {
		name    string
		pending int
		missing bool
	}{
		{"writes in flight", 1, false},
		{"write missing from cohort", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranker, store, _, m := newRanker(t, false)
			ids := seedCohort(t, store, period, map[string][]int{"science": {90}})
			if tt.missing {
				ids = append(ids, uuid.New())
			}

			_, err := ranker.RankBatch(context.Background(), period, generation.NewBarrier(tt.pending, ids...))
			if !errors.Is(err, generation.ErrRankingBarrier) {
				t.Fatalf("RankBatch() error = %v, want ErrRankingBarrier", err)
			}
			if got := testutil.ToFloat64(m.BarrierViolations); got != 1 {
				t.Errorf("violations = %v, want 1", got)
			}

			cohort, _ := store.FindCohort(context.Background(), period.Type, period.Start)
			if cohort[0].Analytics.Ranking.OverallRank != 0 {
				t.Error("cohort was ranked despite the violation")
			}
		})
	}

	t.Run("strict mode panics", func(t *testing.T) {
		ranker, _, _, _ := newRanker(t, true)

		defer func() {
			if r := recover(); r == nil {
				t.Fatal("RankBatch() did not panic")
			}
		}()
		ranker.RankBatch(context.Background(), period, generation.NewBarrier(1))
	})
}
