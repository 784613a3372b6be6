package scores

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/merit/internal/scoring"
)

var transitions = map[Status][]Status{
	StatusActive:      {StatusUnderReview, StatusFinal, StatusArchived},
	StatusUnderReview: {StatusActive, StatusFinal, StatusArchived},
	StatusFinal:       {StatusArchived},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// Supersede prepares next to replace prior for the same teacher and period.
// Achievements carry forward, prior is marked archived, and both audit logs
// record the replacement. A final prior cannot be superseded.
func Supersede(prior, next *Record, now time.Time) error {
	if prior.Status == StatusFinal {
		return fmt.Errorf("supersede %s: %w", prior.ID, ErrFinal)
	}

	id := prior.ID
	next.Metadata.Supersedes = &id
	next.Achievements = next.Achievements.Merge(prior.Achievements)
	next.AuditLog = append(next.AuditLog, AuditEntry{
		Action:    ActionSuperseded,
		Timestamp: now,
		Actor:     string(next.Metadata.Generator),
		Detail:    "supersedes " + prior.ID.String(),
	})

	prior.Status = StatusArchived
	prior.UpdatedAt = now
	prior.AuditLog = append(prior.AuditLog, AuditEntry{
		Action:    ActionSuperseded,
		Timestamp: now,
		Actor:     string(next.Metadata.Generator),
		Detail:    "superseded by " + next.ID.String(),
	})
	return nil
}

// ApplyRanking sets the record's ranking. It reports false, leaving the
// record untouched, when the ranking is unchanged.
func ApplyRanking(r *Record, ranking scoring.Ranking, now time.Time) bool {
	if r.Analytics.Ranking == ranking {
		return false
	}

	before := snapshot(r.Analytics.Ranking)
	r.Analytics.Ranking = ranking
	r.UpdatedAt = now
	r.AuditLog = append(r.AuditLog, AuditEntry{
		Action:    ActionRanked,
		Timestamp: now,
		Actor:     string(GeneratorSystem),
		Detail:    fmt.Sprintf("rank %d of %d", ranking.OverallRank, ranking.TotalTeachers),
		Before:    before,
		After:     snapshot(ranking),
	})
	return true
}

// ApplyReview applies an administrator review to r.
func ApplyReview(r *Record, cmd ReviewCommand, now time.Time) error {
	actor := strings.TrimSpace(cmd.Actor)
	if actor == "" {
		return fmt.Errorf("%w: actor is required", ErrInvalidReview)
	}

	grants := len(cmd.Recognitions) + len(cmd.Awards)
	if cmd.Status == nil && cmd.Notes == "" && grants == 0 {
		return fmt.Errorf("%w: nothing to review", ErrInvalidReview)
	}

	if r.Status == StatusArchived {
		return fmt.Errorf("review %s: %w", r.ID, ErrInvalidTransition)
	}
	if r.Status == StatusFinal && grants > 0 {
		return fmt.Errorf("review %s: %w", r.ID, ErrFinal)
	}

	changeStatus := cmd.Status != nil && *cmd.Status != r.Status
	if changeStatus && !CanTransition(r.Status, *cmd.Status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.Status, *cmd.Status)
	}

	if grants > 0 {
		before := snapshot(r.Achievements)
		r.Achievements = r.Achievements.Merge(scoring.Achievements{
			Recognitions: cmd.Recognitions,
			Awards:       cmd.Awards,
		})
		r.AuditLog = append(r.AuditLog, AuditEntry{
			Action:    ActionReviewed,
			Timestamp: now,
			Actor:     actor,
			Detail:    cmd.Notes,
			Before:    before,
			After:     snapshot(r.Achievements),
		})
	} else if cmd.Notes != "" {
		r.AuditLog = append(r.AuditLog, AuditEntry{
			Action:    ActionReviewed,
			Timestamp: now,
			Actor:     actor,
			Detail:    cmd.Notes,
		})
	}

	if changeStatus {
		r.AuditLog = append(r.AuditLog, AuditEntry{
			Action:    ActionStatus,
			Timestamp: now,
			Actor:     actor,
			Detail:    fmt.Sprintf("%s -> %s", r.Status, *cmd.Status),
		})
		r.Status = *cmd.Status
	}

	r.UpdatedAt = now
	return nil
}

// ApplyGoals applies a teacher's goal update to r and re-establishes
// TargetAchieved.
func ApplyGoals(r *Record, cmd GoalsCommand, now time.Time) error {
	actor := strings.TrimSpace(cmd.Actor)
	if actor == "" {
		return fmt.Errorf("%w: actor is required", ErrInvalidGoals)
	}

	switch r.Status {
	case StatusFinal:
		return fmt.Errorf("update goals %s: %w", r.ID, ErrFinal)
	case StatusArchived:
		return fmt.Errorf("update goals %s: %w", r.ID, ErrInvalidTransition)
	}

	if cmd.TargetScore != nil && (*cmd.TargetScore < 0 || *cmd.TargetScore > 100) {
		return fmt.Errorf("%w: target score %d outside [0,100]", ErrInvalidGoals, *cmd.TargetScore)
	}
	if cmd.NextReviewDate != nil && !cmd.NextReviewDate.After(r.Period.End) {
		return fmt.Errorf("%w: next review date must follow the period", ErrInvalidGoals)
	}

	before := snapshot(r.Goals)
	goals := r.Goals
	if cmd.TargetScore != nil {
		goals.TargetScore = *cmd.TargetScore
	}
	if cmd.ActionPlan != nil {
		goals.ActionPlan = slices.Clone(cmd.ActionPlan)
	}
	if cmd.NextReviewDate != nil {
		goals.NextReviewDate = *cmd.NextReviewDate
	}
	r.Goals = goals.Reconcile(r.OverallScore)

	r.UpdatedAt = now
	r.AuditLog = append(r.AuditLog, AuditEntry{
		Action:    ActionGoals,
		Timestamp: now,
		Actor:     actor,
		Before:    before,
		After:     snapshot(r.Goals),
	})
	return nil
}

func snapshot(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
