// Package scores implements the score record domain: the persisted,
// auditable result of scoring one teacher for one period, its store, and
// the review and goal-update operations on it.
package scores

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
)

// SchemaVersion is the record layout version written to metadata.
const SchemaVersion = 1

// Status is the lifecycle state of a record.
type Status string

// Record statuses.
const (
	StatusActive      Status = "active"
	StatusUnderReview Status = "under_review"
	StatusFinal       Status = "final"
	StatusArchived    Status = "archived"
)

// Generator identifies what produced a record.
type Generator string

// Record generators.
const (
	GeneratorSystem Generator = "system"
	GeneratorAdmin  Generator = "admin"
	GeneratorManual Generator = "manual"
)

// Audit actions.
const (
	ActionCreated    = "created"
	ActionSuperseded = "superseded"
	ActionRanked     = "ranked"
	ActionReviewed   = "reviewed"
	ActionStatus     = "status_changed"
	ActionGoals      = "goals_updated"
)

// AuditEntry is one append-only entry of a record's audit log. Before and
// After hold optional JSON snapshots of the mutated block.
type AuditEntry struct {
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor"`
	Detail    string          `json:"detail,omitempty"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
}

// Metadata records how a score was produced.
type Metadata struct {
	Generator         Generator  `json:"generator"`
	Version           int        `json:"version"`
	CalculationMethod string     `json:"calculation_method"`
	DataSources       []string   `json:"data_sources"`
	ConfidenceLevel   int        `json:"confidence_level"`
	Baseline          bool       `json:"baseline"`
	Supersedes        *uuid.UUID `json:"supersedes,omitempty"`
	RunID             *uuid.UUID `json:"run_id,omitempty"`
}

// Record is a teacher's score for one period. At most one non-archived
// record exists per teacher, period type and period start.
type Record struct {
	ID            uuid.UUID            `json:"id"`
	TeacherID     uuid.UUID            `json:"teacher_id"`
	TeacherName   string               `json:"teacher_name,omitempty"`
	Department    string               `json:"department"`
	Category      string               `json:"category"`
	Period        scoring.Period       `json:"period"`
	OverallScore  int                  `json:"overall_score"`
	PreviousScore *int                 `json:"previous_score"`
	ScoreChange   int                  `json:"score_change"`
	ScoreGrade    scoring.Grade        `json:"score_grade"`
	Metrics       scoring.Metrics      `json:"metrics"`
	Analytics     scoring.Analytics    `json:"analytics"`
	Goals         scoring.Goals        `json:"goals"`
	Achievements  scoring.Achievements `json:"achievements"`
	Status        Status               `json:"status"`
	AuditLog      []AuditEntry         `json:"audit_log"`
	Metadata      Metadata             `json:"metadata"`
	GeneratedAt   time.Time            `json:"generated_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// RankEntry projects the record for cohort ranking.
func (r Record) RankEntry() scoring.RankEntry {
	return scoring.RankEntry{
		ID:         r.ID,
		Score:      r.OverallScore,
		Department: r.Department,
		Category:   r.Category,
	}
}

// Previous projects the record as the comparison point for a later period.
func (r Record) Previous() *scoring.Previous {
	return &scoring.Previous{
		Score:            r.OverallScore,
		AverageRating:    r.Metrics.StudentRating.AverageRating,
		TotalEnrollments: r.Analytics.TotalEnrollments,
	}
}

// RankingUpdate assigns a cohort ranking to a record.
type RankingUpdate struct {
	ID      uuid.UUID       `json:"id"`
	Ranking scoring.Ranking `json:"ranking"`
}

// ReviewCommand carries an administrator's review of a record. Nil and empty
// fields leave the record unchanged.
type ReviewCommand struct {
	Actor        string   `json:"actor"`
	Status       *Status  `json:"status,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Recognitions []string `json:"recognitions,omitempty"`
	Awards       []string `json:"awards,omitempty"`
}

// GoalsCommand carries a teacher's update to a record's goals.
type GoalsCommand struct {
	Actor          string     `json:"actor"`
	TargetScore    *int       `json:"target_score,omitempty"`
	ActionPlan     []string   `json:"action_plan,omitempty"`
	NextReviewDate *time.Time `json:"next_review_date,omitempty"`
}
