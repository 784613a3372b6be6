// Package generation orchestrates score generation: computing, composing and
// persisting one record per teacher and period, then ranking the cohort.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/internal/sources"
	"github.com/JaimeStill/merit/pkg/events"
	"github.com/JaimeStill/merit/pkg/metrics"
)

// EventGenerated is published for every record a generation saves.
const EventGenerated = "score.generated"

// GenerateAllCommand selects the teachers and period of a batch run. An empty
// TeacherIDs selects every active teacher. Start and End are required for
// custom periods and ignored otherwise.
type GenerateAllCommand struct {
	PeriodType scoring.PeriodType `json:"period_type"`
	TeacherIDs []uuid.UUID        `json:"teacher_ids,omitempty"`
	Start      *time.Time         `json:"start,omitempty"`
	End        *time.Time         `json:"end,omitempty"`
	Generator  scores.Generator   `json:"generator,omitempty"`
}

// System defines the public contract for score generation.
type System interface {
	Handler() *Handler

	// GenerateOne scores one teacher for the current period of periodType and
	// re-ranks that period's cohort.
	GenerateOne(ctx context.Context, teacherID uuid.UUID, periodType scoring.PeriodType) (*scores.Record, error)
	// GenerateOneFor scores one teacher for an explicit period.
	GenerateOneFor(ctx context.Context, teacherID uuid.UUID, period scoring.Period) (*scores.Record, error)
	// GenerateAll scores every selected teacher with bounded parallelism and
	// ranks the cohort once all writes complete. Per-teacher failures are
	// reported in the Report; the returned error covers pre-flight and ranking
	// failures.
	GenerateAll(ctx context.Context, cmd GenerateAllCommand) (*Report, error)
	Rank(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time) (*RankResult, error)
	Report(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time, runID uuid.UUID) (*Report, error)
}

type system struct {
	cfg        Config
	calculator *scoring.Calculator
	directory  sources.Directory
	store      scores.Store
	ranker     *Ranker
	archive    *Archive
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// New creates the generation system.
func New(
	cfg Config,
	calculator *scoring.Calculator,
	directory sources.Directory,
	store scores.Store,
	archive *Archive,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) System {
	return &system{
		cfg:        cfg,
		calculator: calculator,
		directory:  directory,
		store:      store,
		ranker:     NewRanker(store, publisher, m, logger, cfg.StrictBarrier),
		archive:    archive,
		publisher:  publisher,
		metrics:    m,
		logger:     logger.With("system", "generation"),
		now:        time.Now,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) GenerateOne(ctx context.Context, teacherID uuid.UUID, periodType scoring.PeriodType) (*scores.Record, error) {
	period, err := scoring.ResolvePeriod(periodType, s.now().In(s.cfg.Location()))
	if err != nil {
		return nil, err
	}
	return s.GenerateOneFor(ctx, teacherID, period)
}

func (s *system) GenerateOneFor(ctx context.Context, teacherID uuid.UUID, period scoring.Period) (*scores.Record, error) {
	teacher, err := s.directory.Teacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("lookup teacher: %w", err)
	}

	rec, status, err := s.generate(ctx, teacher, period, nil, scores.GeneratorManual)
	if err != nil {
		return nil, err
	}
	s.logger.Info("score generated",
		"teacher_id", teacherID,
		"period", period.String(),
		"status", status,
		"overall_score", rec.OverallScore,
	)

	if _, err := s.ranker.Rank(ctx, period.Type, period.Start); err != nil {
		return nil, fmt.Errorf("rank cohort: %w", err)
	}

	ranked, err := s.store.Find(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("reload score: %w", err)
	}

	s.publish(ctx, *ranked)
	return ranked, nil
}

func (s *system) GenerateAll(ctx context.Context, cmd GenerateAllCommand) (*Report, error) {
	period, err := s.period(cmd)
	if err != nil {
		return nil, err
	}

	if err := s.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pre-flight check: %w", err)
	}

	members, err := s.roster(ctx, cmd.TeacherIDs)
	if err != nil {
		return nil, err
	}

	generator := cmd.Generator
	if generator == "" {
		generator = scores.GeneratorSystem
	}

	report := &Report{
		RunID:     uuid.New(),
		Period:    period,
		StartedAt: s.now(),
		Outcomes:  make([]Outcome, len(members)),
	}
	for i, m := range members {
		report.Outcomes[i] = Outcome{TeacherID: m.teacher.ID, Status: OutcomeCanceled, Error: context.Canceled.Error()}
	}

	s.metrics.BatchTeachers.Observe(float64(len(members)))
	s.logger.Info("batch started",
		"run_id", report.RunID,
		"period", period.String(),
		"teachers", len(members),
		"workers", s.cfg.Workers,
	)

	b := &barrier{}
	s.run(ctx, report, members, generator, b)
	report.tally()

	var rankErr error
	switch {
	case report.Aborted:
		s.metrics.RankingRuns.WithLabelValues(string(period.Type), metrics.RankingSkipped).Inc()
		s.logger.Warn("ranking skipped: batch aborted", "run_id", report.RunID, "reason", report.AbortReason)
	case ctx.Err() != nil:
		s.metrics.RankingRuns.WithLabelValues(string(period.Type), metrics.RankingSkipped).Inc()
		s.logger.Warn("ranking skipped: batch canceled", "run_id", report.RunID)
	default:
		result, err := s.ranker.RankBatch(ctx, period, b)
		if err != nil {
			rankErr = fmt.Errorf("rank cohort: %w", err)
			report.RankingError = err.Error()
		} else {
			report.Ranked = true
			report.Ranking = result
		}
	}

	report.CompletedAt = s.now()

	if key, err := s.archive.Save(context.WithoutCancel(ctx), report); err != nil {
		s.logger.Warn("report archive failed", "run_id", report.RunID, "error", err)
	} else {
		report.ArchiveKey = key
	}

	if report.Ranked {
		s.publishBatch(ctx, report)
	}

	s.logger.Info("batch complete",
		"run_id", report.RunID,
		"saved", report.Totals.Saved,
		"baseline", report.Totals.Baseline,
		"skipped", report.Totals.Skipped,
		"failed", report.Totals.Failed,
		"canceled", report.Totals.Canceled,
		"aborted", report.Aborted,
		"ranked", report.Ranked,
		"duration", report.CompletedAt.Sub(report.StartedAt),
	)

	return report, rankErr
}

func (s *system) Rank(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time) (*RankResult, error) {
	return s.ranker.Rank(ctx, periodType, periodStart)
}

func (s *system) Report(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time, runID uuid.UUID) (*Report, error) {
	return s.archive.Load(ctx, ReportKey(periodType, periodStart, runID))
}

// run fills report.Outcomes. Each goroutine writes only its own index.
// Teachers never started keep their canceled outcome. A store-unavailable
// failure aborts the remaining work.
func (s *system) run(
	ctx context.Context,
	report *Report,
	members []member,
	generator scores.Generator,
	b *barrier,
) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	runID := report.RunID

	for i, m := range members {
		if gctx.Err() != nil {
			break
		}

		teacher := m.teacher
		if m.err != nil {
			s.metrics.Generations.WithLabelValues(string(report.Period.Type), metrics.OutcomeFailed).Inc()
			report.Outcomes[i] = Outcome{TeacherID: teacher.ID, Status: OutcomeFailed, Error: m.err.Error()}
			continue
		}

		b.enter()
		g.Go(func() error {
			defer b.leave()

			if gctx.Err() != nil {
				return nil
			}

			rec, status, err := s.generate(gctx, teacher, report.Period, &runID, generator)
			outcome := Outcome{TeacherID: teacher.ID, Status: status}

			switch {
			case err == nil:
				b.record(rec.ID)
				id := rec.ID
				outcome.Success = true
				outcome.ScoreID = &id
			case status == OutcomeSkipped:
				outcome.Error = err.Error()
			default:
				outcome.Error = err.Error()
				s.logger.Warn("score generation failed",
					"run_id", runID,
					"teacher_id", teacher.ID,
					"error", err,
				)
			}
			report.Outcomes[i] = outcome

			if err != nil && scores.IsUnavailable(err) {
				return fmt.Errorf("teacher %s: %w", teacher.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		report.Aborted = true
		report.AbortReason = err.Error()
		s.logger.Error("batch aborted", "run_id", runID, "error", err)
	}
}

// generate scores one teacher for period and persists the record. The
// returned status classifies the result even when err is non-nil. A panic
// in a collaborator fails only this teacher.
func (s *system) generate(
	ctx context.Context,
	teacher sources.Teacher,
	period scoring.Period,
	runID *uuid.UUID,
	generator scores.Generator,
) (rec *scores.Record, status OutcomeStatus, err error) {
	started := time.Now()
	label := string(period.Type)

	defer func() {
		if v := recover(); v != nil {
			rec, status = nil, OutcomeFailed
			err = fmt.Errorf("%w: %v", ErrGenerationPanic, v)
			s.logger.Error("score generation panicked",
				"teacher_id", teacher.ID,
				"period", period.String(),
				"panic", v,
				"stack", string(debug.Stack()),
			)
		}
		s.metrics.GenerationSeconds.WithLabelValues(label).Observe(time.Since(started).Seconds())
		s.metrics.Generations.WithLabelValues(label, string(status)).Inc()
	}()

	return s.score(ctx, teacher, period, runID, generator)
}

func (s *system) score(
	ctx context.Context,
	teacher sources.Teacher,
	period scoring.Period,
	runID *uuid.UUID,
	generator scores.Generator,
) (*scores.Record, OutcomeStatus, error) {
	status := OutcomeSaved

	eval, err := s.calculator.Compute(ctx, teacher.ID, period)
	if errors.Is(err, scoring.ErrInsufficientData) {
		if s.cfg.InsufficientData == PolicySkip {
			return nil, OutcomeSkipped, err
		}
		status = OutcomeBaseline
		eval, err = s.calculator.Baseline(ctx, teacher.ID, period)
	}
	if err != nil {
		return nil, failure(ctx), fmt.Errorf("compute metrics: %w", err)
	}

	var previous *scores.Record
	prior, err := s.store.FindLatest(ctx, teacher.ID, period.Type, period.Start)
	switch {
	case err == nil:
		previous = prior
	case !errors.Is(err, scores.ErrNotFound):
		return nil, failure(ctx), fmt.Errorf("find previous score: %w", err)
	}

	rec, err := s.build(teacher, period, eval, previous, runID, generator)
	if err != nil {
		return nil, OutcomeFailed, err
	}

	stored, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return nil, failure(ctx), fmt.Errorf("save score: %w", err)
	}
	return stored, status, nil
}

func (s *system) build(
	teacher sources.Teacher,
	period scoring.Period,
	eval scoring.Evaluation,
	previous *scores.Record,
	runID *uuid.UUID,
	generator scores.Generator,
) (scores.Record, error) {
	var (
		previousScore *int
		comparison    *scoring.Previous
	)
	if previous != nil {
		score := previous.OverallScore
		previousScore = &score
		comparison = previous.Previous()
	}

	composition, err := scoring.Compose(eval.Metrics, s.cfg.Weights, previousScore)
	if err != nil {
		return scores.Record{}, fmt.Errorf("compose score: %w", err)
	}

	analytics := eval.Analytics
	analytics.Trends = scoring.ComputeTrends(composition.OverallScore, eval.Metrics, eval.Analytics, comparison)

	now := s.now()
	return scores.Record{
		ID:            uuid.New(),
		TeacherID:     teacher.ID,
		TeacherName:   teacher.Name,
		Department:    teacher.Department,
		Category:      eval.Category,
		Period:        period,
		OverallScore:  composition.OverallScore,
		PreviousScore: previousScore,
		ScoreChange:   composition.ScoreChange,
		ScoreGrade:    composition.ScoreGrade,
		Metrics:       eval.Metrics,
		Analytics:     analytics,
		Goals:         scoring.PlanGoals(composition.OverallScore, eval.Metrics, previousScore, period),
		Achievements:  scoring.EvaluateAchievements(eval.Metrics, analytics),
		Status:        scores.StatusActive,
		AuditLog: []scores.AuditEntry{{
			Action:    scores.ActionCreated,
			Timestamp: now,
			Actor:     string(generator),
			Detail:    fmt.Sprintf("generated %s score %d", period.Type, composition.OverallScore),
		}},
		Metadata: scores.Metadata{
			Generator:         generator,
			Version:           scores.SchemaVersion,
			CalculationMethod: s.cfg.CalculationMethod,
			DataSources:       eval.DataSources,
			ConfidenceLevel:   eval.ConfidenceLevel,
			Baseline:          eval.Baseline,
			RunID:             runID,
		},
		GeneratedAt: now,
		UpdatedAt:   now,
	}, nil
}

func (s *system) period(cmd GenerateAllCommand) (scoring.Period, error) {
	if cmd.PeriodType == scoring.PeriodCustom {
		if cmd.Start == nil || cmd.End == nil {
			return scoring.Period{}, fmt.Errorf("%w: custom periods require start and end", ErrInvalidCommand)
		}
		return scoring.CustomPeriod(cmd.Start.In(s.cfg.Location()), cmd.End.In(s.cfg.Location()))
	}
	return scoring.ResolvePeriod(cmd.PeriodType, s.now().In(s.cfg.Location()))
}

// member is one roster slot. Err is set when the teacher could not be
// resolved, so its failure is reported without scoring it.
type member struct {
	teacher sources.Teacher
	err     error
}

// roster resolves the teachers of a batch. Explicit ids are deduplicated in
// order.
func (s *system) roster(ctx context.Context, ids []uuid.UUID) ([]member, error) {
	if len(ids) == 0 {
		teachers, err := s.directory.ActiveTeachers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active teachers: %w", err)
		}
		members := make([]member, len(teachers))
		for i, t := range teachers {
			members[i] = member{teacher: t}
		}
		return members, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	members := make([]member, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		t, err := s.directory.Teacher(ctx, id)
		switch {
		case err == nil:
			members = append(members, member{teacher: t})
		case errors.Is(err, sources.ErrTeacherNotFound):
			members = append(members, member{teacher: sources.Teacher{ID: id}, err: err})
		default:
			return nil, fmt.Errorf("lookup teacher %s: %w", id, err)
		}
	}
	return members, nil
}

func (s *system) publish(ctx context.Context, rec scores.Record) {
	err := s.publisher.Publish(ctx, generatedEvent(rec))
	if err != nil {
		s.logger.Warn("event publish failed", "type", EventGenerated, "id", rec.ID, "error", err)
	}
}

// publishBatch emits one event per saved record with its final ranking.
func (s *system) publishBatch(ctx context.Context, report *Report) {
	cohort, err := s.store.FindCohort(ctx, report.Period.Type, report.Period.Start)
	if err != nil {
		s.logger.Warn("event publish skipped", "run_id", report.RunID, "error", err)
		return
	}

	written := report.Written()
	batch := make([]events.Event, 0, len(written))
	for _, rec := range cohort {
		if slices.Contains(written, rec.ID) {
			batch = append(batch, generatedEvent(rec))
		}
	}

	if err := s.publisher.Publish(ctx, batch...); err != nil {
		s.logger.Warn("event publish failed", "type", EventGenerated, "run_id", report.RunID, "error", err)
	}
}

func generatedEvent(rec scores.Record) events.Event {
	return events.Event{
		Type:       EventGenerated,
		Key:        rec.TeacherID.String(),
		OccurredAt: rec.GeneratedAt,
		Payload:    scores.Summarize(rec),
	}
}

// failure classifies an error raised while ctx may have been canceled.
func failure(ctx context.Context) OutcomeStatus {
	if ctx.Err() != nil {
		return OutcomeCanceled
	}
	return OutcomeFailed
}
