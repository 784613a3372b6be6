// Package scoring computes teacher performance scores: category metrics from raw
// ratings, enrollments and courses, the weighted overall score and grade, goals,
// achievements, trends, and cohort rankings. Everything here is free of storage
// concerns; sources are injected and results are plain values.
package scoring

import "math"

// Category names one of the four scored metric categories.
type Category string

// Metric categories in their canonical order.
const (
	CategoryStudentRating     Category = "student_rating"
	CategoryCoursePerformance Category = "course_performance"
	CategoryEngagement        Category = "engagement"
	CategoryDevelopment       Category = "development"
)

// Categories lists every category in canonical order.
var Categories = []Category{
	CategoryStudentRating,
	CategoryCoursePerformance,
	CategoryEngagement,
	CategoryDevelopment,
}

// StudentRatingMetrics summarizes approved, active ratings in the period.
type StudentRatingMetrics struct {
	Score         float64     `json:"score"`
	AverageRating float64     `json:"average_rating"`
	TotalRatings  int         `json:"total_ratings"`
	ResponseRate  float64     `json:"response_rate"`
	Distribution  map[int]int `json:"distribution"`
}

// CoursePerformanceMetrics summarizes in-period enrollments in the teacher's courses.
// Rates are percentages in [0,100].
type CoursePerformanceMetrics struct {
	Score                float64 `json:"score"`
	TotalEnrollments     int     `json:"total_enrollments"`
	CompletedEnrollments int     `json:"completed_enrollments"`
	DroppedEnrollments   int     `json:"dropped_enrollments"`
	GradedEnrollments    int     `json:"graded_enrollments"`
	CompletionRate       float64 `json:"completion_rate"`
	AverageGrade         float64 `json:"average_grade"`
	DropoutRate          float64 `json:"dropout_rate"`
	PassRate             float64 `json:"pass_rate"`
}

// EngagementMetrics holds the engagement sub-scores. Baseline is set when any
// signal was unmeasured and took the neutral baseline.
type EngagementMetrics struct {
	Score                   float64 `json:"score"`
	ResponseTimeScore       float64 `json:"response_time_score"`
	ForumParticipationScore float64 `json:"forum_participation_score"`
	FeedbackQualityScore    float64 `json:"feedback_quality_score"`
	AvailabilityScore       float64 `json:"availability_score"`
	Baseline                bool    `json:"baseline"`
}

// DevelopmentMetrics summarizes professional development in the period.
type DevelopmentMetrics struct {
	Score                float64 `json:"score"`
	CoursesCreated       int     `json:"courses_created"`
	ContentUpdates       int     `json:"content_updates"`
	SkillsImprovement    float64 `json:"skills_improvement"`
	CertificationsEarned int     `json:"certifications_earned"`
}

// Metrics groups the four category metrics.
type Metrics struct {
	StudentRating     StudentRatingMetrics     `json:"student_rating"`
	CoursePerformance CoursePerformanceMetrics `json:"course_performance"`
	Engagement        EngagementMetrics        `json:"engagement"`
	Development       DevelopmentMetrics       `json:"development"`
}

// Score returns the 0–100 score of category c.
func (m Metrics) Score(c Category) float64 {
	switch c {
	case CategoryStudentRating:
		return m.StudentRating.Score
	case CategoryCoursePerformance:
		return m.CoursePerformance.Score
	case CategoryEngagement:
		return m.Engagement.Score
	case CategoryDevelopment:
		return m.Development.Score
	}
	return 0
}

// Sentiment tallies ratings by polarity: 4–5 positive, 3 neutral, 1–2 negative.
type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Analytics holds cohort-independent activity counts plus the trend and ranking
// blocks filled in after composition and ranking.
type Analytics struct {
	ActiveCourses    int       `json:"active_courses"`
	CompletedCourses int       `json:"completed_courses"`
	TotalStudents    int       `json:"total_students"`
	TotalEnrollments int       `json:"total_enrollments"`
	AverageClassSize float64   `json:"average_class_size"`
	Sentiment        Sentiment `json:"sentiment"`
	Trends           Trends    `json:"trends"`
	Ranking          Ranking   `json:"ranking"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
