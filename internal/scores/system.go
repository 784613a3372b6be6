package scores

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/events"
	"github.com/JaimeStill/merit/pkg/pagination"
)

// Event types published by the scores system.
const (
	EventReviewed     = "score.reviewed"
	EventGoalsUpdated = "score.goals_updated"
)

// System defines the public contract for score record operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Cohort(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time) ([]Record, error)
	Review(ctx context.Context, id uuid.UUID, cmd ReviewCommand) (*Record, error)
	UpdateGoals(ctx context.Context, id uuid.UUID, cmd GoalsCommand) (*Record, error)
}

type system struct {
	store      Store
	publisher  events.Publisher
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates a score record system over store.
func New(
	store Store,
	publisher events.Publisher,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &system{
		store:      store,
		publisher:  publisher,
		logger:     logger.With("system", "scores"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}

func (s *system) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(s.pagination)
	return s.store.List(ctx, page, filters)
}

func (s *system) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.store.Find(ctx, id)
}

func (s *system) Cohort(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time) ([]Record, error) {
	return s.store.FindCohort(ctx, periodType, periodStart)
}

func (s *system) Review(ctx context.Context, id uuid.UUID, cmd ReviewCommand) (*Record, error) {
	r, err := s.store.Mutate(ctx, id, func(r *Record) error {
		return ApplyReview(r, cmd, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("review score record: %w", err)
	}

	s.logger.Info("score record reviewed", "id", r.ID, "actor", cmd.Actor, "status", r.Status)
	s.publish(ctx, EventReviewed, r)
	return r, nil
}

func (s *system) UpdateGoals(ctx context.Context, id uuid.UUID, cmd GoalsCommand) (*Record, error) {
	r, err := s.store.Mutate(ctx, id, func(r *Record) error {
		return ApplyGoals(r, cmd, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("update goals: %w", err)
	}

	s.logger.Info("score goals updated",
		"id", r.ID,
		"actor", cmd.Actor,
		"target_score", r.Goals.TargetScore,
		"target_achieved", r.Goals.TargetAchieved,
	)
	s.publish(ctx, EventGoalsUpdated, r)
	return r, nil
}

func (s *system) publish(ctx context.Context, eventType string, r *Record) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		Key:        r.TeacherID.String(),
		OccurredAt: r.UpdatedAt,
		Payload:    Summarize(*r),
	})
	if err != nil {
		s.logger.Warn("event publish failed", "type", eventType, "id", r.ID, "error", err)
	}
}

// Summary is the event payload describing a record.
type Summary struct {
	ID           uuid.UUID          `json:"id"`
	TeacherID    uuid.UUID          `json:"teacher_id"`
	PeriodType   scoring.PeriodType `json:"period_type"`
	PeriodStart  time.Time          `json:"period_start"`
	OverallScore int                `json:"overall_score"`
	ScoreGrade   scoring.Grade      `json:"score_grade"`
	Status       Status             `json:"status"`
	Ranking      scoring.Ranking    `json:"ranking"`
}

// Summarize projects r as an event payload.
func Summarize(r Record) Summary {
	return Summary{
		ID:           r.ID,
		TeacherID:    r.TeacherID,
		PeriodType:   r.Period.Type,
		PeriodStart:  r.Period.Start,
		OverallScore: r.OverallScore,
		ScoreGrade:   r.ScoreGrade,
		Status:       r.Status,
		Ranking:      r.Analytics.Ranking,
	}
}
