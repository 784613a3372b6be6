package generation

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
)

// OutcomeStatus classifies one teacher's result within a batch.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeSaved    OutcomeStatus = "saved"
	OutcomeBaseline OutcomeStatus = "baseline"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeCanceled OutcomeStatus = "canceled"
)

// Outcome is one teacher's result within a batch. ScoreID is set on success,
// Error otherwise.
type Outcome struct {
	TeacherID uuid.UUID     `json:"teacher_id"`
	Success   bool          `json:"success"`
	Status    OutcomeStatus `json:"status"`
	ScoreID   *uuid.UUID    `json:"score_id,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Totals counts outcomes by status.
type Totals struct {
	Saved    int `json:"saved"`
	Baseline int `json:"baseline"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Canceled int `json:"canceled"`
}

// Report summarizes a batch run. Outcomes are index-aligned with the
// teachers the batch scheduled.
type Report struct {
	RunID        uuid.UUID      `json:"run_id"`
	Period       scoring.Period `json:"period"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	Outcomes     []Outcome      `json:"outcomes"`
	Totals       Totals         `json:"totals"`
	Aborted      bool           `json:"aborted"`
	AbortReason  string         `json:"abort_reason,omitempty"`
	Ranked       bool           `json:"ranked"`
	Ranking      *RankResult    `json:"ranking,omitempty"`
	RankingError string         `json:"ranking_error,omitempty"`
	ArchiveKey   string         `json:"archive_key,omitempty"`
}

func (r *Report) tally() {
	r.Totals = Totals{}
	for _, o := range r.Outcomes {
		switch o.Status {
		case OutcomeSaved:
			r.Totals.Saved++
		case OutcomeBaseline:
			r.Totals.Baseline++
		case OutcomeSkipped:
			r.Totals.Skipped++
		case OutcomeFailed:
			r.Totals.Failed++
		case OutcomeCanceled:
			r.Totals.Canceled++
		}
	}
}

// Written returns the score ids the batch persisted.
func (r *Report) Written() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Success && o.ScoreID != nil {
			ids = append(ids, *o.ScoreID)
		}
	}
	return ids
}
