// Package metrics owns the Prometheus registry and the collectors exported by Merit.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcome labels.
const (
	OutcomeSaved    = "saved"
	OutcomeBaseline = "baseline"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Ranking result labels.
const (
	RankingRanked  = "ranked"
	RankingEmpty   = "empty"
	RankingFailed  = "failed"
	RankingSkipped = "skipped"
)

// Metrics groups the collectors recorded by score generation and ranking.
type Metrics struct {
	registry *prometheus.Registry

	Generations       *prometheus.CounterVec
	GenerationSeconds *prometheus.HistogramVec
	BatchTeachers     prometheus.Histogram
	RankingRuns       *prometheus.CounterVec
	BarrierViolations prometheus.Counter
	CohortSize        *prometheus.GaugeVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates a Metrics instance on its own registry. The registry also
// carries the Go runtime and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_generations_total",
			Help:      "Per-teacher score generations by period type and outcome.",
		}, []string{"period_type", "outcome"}),
		GenerationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_generation_seconds",
			Help:      "Latency of a single teacher's score generation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"period_type"}),
		BatchTeachers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_teachers",
			Help:      "Number of teachers scheduled per batch run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		RankingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_runs_total",
			Help:      "Cohort ranking passes by result.",
		}, []string{"period_type", "result"}),
		BarrierViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_barrier_violations_total",
			Help:      "Ranking passes attempted before every batch write was visible.",
		}),
		CohortSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cohort_size",
			Help:      "Teachers in the most recently ranked cohort.",
		}, []string{"period_type"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Generations,
		m.GenerationSeconds,
		m.BatchTeachers,
		m.RankingRuns,
		m.BarrierViolations,
		m.CohortSize,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WatchDB exports connection pool statistics for db under the given name.
func (m *Metrics) WatchDB(name string, db *sql.DB) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Instrument wraps next with the HTTP request counter and latency histogram.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(m.HTTPDuration,
		promhttp.InstrumentHandlerCounter(m.HTTPRequests, next))
}
