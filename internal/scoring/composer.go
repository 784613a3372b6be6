package scoring

import (
	"fmt"
	"math"
)

// Grade is a letter grade derived from an overall score.
type Grade string

// Letter grades from highest to lowest.
const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

var gradeFloors = []struct {
	floor int
	grade Grade
}{
	{97, GradeAPlus},
	{93, GradeA},
	{87, GradeBPlus},
	{83, GradeB},
	{77, GradeCPlus},
	{73, GradeC},
	{60, GradeD},
}

// GradeFor maps an overall score to its letter grade. Lower bounds are inclusive.
func GradeFor(score int) Grade {
	for _, g := range gradeFloors {
		if score >= g.floor {
			return g.grade
		}
	}
	return GradeF
}

const weightTolerance = 1e-6

// Weights are the per-category contributions to the overall score.
type Weights struct {
	StudentRating     float64 `json:"student_rating" toml:"student_rating"`
	CoursePerformance float64 `json:"course_performance" toml:"course_performance"`
	Engagement        float64 `json:"engagement" toml:"engagement"`
	Development       float64 `json:"development" toml:"development"`
}

// DefaultWeights returns the standard 0.40/0.30/0.20/0.10 weighting.
func DefaultWeights() Weights {
	return Weights{
		StudentRating:     0.4,
		CoursePerformance: 0.3,
		Engagement:        0.2,
		Development:       0.1,
	}
}

// Of returns the weight of category c.
func (w Weights) Of(c Category) float64 {
	switch c {
	case CategoryStudentRating:
		return w.StudentRating
	case CategoryCoursePerformance:
		return w.CoursePerformance
	case CategoryEngagement:
		return w.Engagement
	case CategoryDevelopment:
		return w.Development
	}
	return 0
}

// Validate checks each weight is within [0,1] and that they sum to 1.0.
func (w Weights) Validate() error {
	var sum float64
	for _, c := range Categories {
		v := w.Of(c)
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s weight %v outside [0,1]", ErrInvalidWeights, c, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}
	return nil
}

// Composition is the weighted overall score with its grade and change from
// the previous period.
type Composition struct {
	OverallScore int   `json:"overall_score"`
	ScoreChange  int   `json:"score_change"`
	ScoreGrade   Grade `json:"score_grade"`
}

// Compose combines category metrics into an overall score. previous is the
// teacher's prior overall score, nil when none exists.
func Compose(metrics Metrics, weights Weights, previous *int) (Composition, error) {
	if err := weights.Validate(); err != nil {
		return Composition{}, err
	}

	var total float64
	for _, c := range Categories {
		total += metrics.Score(c) * weights.Of(c)
	}

	overall := int(math.Round(clamp(total, 0, 100)))

	comp := Composition{
		OverallScore: overall,
		ScoreGrade:   GradeFor(overall),
	}
	if previous != nil {
		comp.ScoreChange = overall - *previous
	}
	return comp, nil
}
