package scoring

import "time"

const (
	improvementThreshold = 70.0
	strengthThreshold    = 80.0
	firstPeriodStretch   = 10
	improvingStretch     = 5
)

var actionPlans = map[Category][]string{
	CategoryStudentRating: {
		"Gather mid-course feedback and address recurring concerns",
		"Encourage students who complete a course to leave a rating",
	},
	CategoryCoursePerformance: {
		"Review lessons with the highest drop-off and restructure them",
		"Add graded checkpoints to support students at risk of failing",
	},
	CategoryEngagement: {
		"Respond to student questions within 24 hours",
		"Hold weekly office hours and post in course forums",
	},
	CategoryDevelopment: {
		"Refresh outdated course content this period",
		"Complete a professional certification or workshop",
	},
}

// Goals are the improvement targets derived for the next period.
type Goals struct {
	TargetScore      int        `json:"target_score"`
	TargetAchieved   bool       `json:"target_achieved"`
	ImprovementAreas []Category `json:"improvement_areas"`
	StrengthAreas    []Category `json:"strength_areas"`
	ActionPlan       []string   `json:"action_plan"`
	NextReviewDate   time.Time  `json:"next_review_date"`
}

// PlanGoals derives goals from the overall score, category metrics and the
// previous overall score (nil when none).
func PlanGoals(overall int, metrics Metrics, previous *int, period Period) Goals {
	g := Goals{
		TargetScore:      TargetScore(overall, previous),
		ImprovementAreas: []Category{},
		StrengthAreas:    []Category{},
		ActionPlan:       []string{},
		NextReviewDate:   period.Next().End,
	}

	for _, c := range Categories {
		score := metrics.Score(c)
		switch {
		case score < improvementThreshold:
			g.ImprovementAreas = append(g.ImprovementAreas, c)
			g.ActionPlan = append(g.ActionPlan, actionPlans[c]...)
		case score >= strengthThreshold:
			g.StrengthAreas = append(g.StrengthAreas, c)
		}
	}

	return g.Reconcile(overall)
}

// TargetScore computes the next-period target. Without a previous score the
// target is ten points up; an improving teacher gets five; a declining teacher
// is asked to recover the previous score.
func TargetScore(overall int, previous *int) int {
	switch {
	case previous == nil:
		return min(100, overall+firstPeriodStretch)
	case overall >= *previous:
		return min(100, overall+improvingStretch)
	default:
		return min(100, *previous)
	}
}

// Reconcile re-establishes TargetAchieved against overall.
func (g Goals) Reconcile(overall int) Goals {
	g.TargetAchieved = overall >= g.TargetScore
	return g
}
