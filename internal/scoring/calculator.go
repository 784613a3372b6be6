package scoring

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/google/uuid"
)

// Data source tags recorded in score metadata.
const (
	SourceRatings     = "ratings"
	SourceEnrollments = "enrollments"
	SourceCourses     = "courses"
	SourceEngagement  = "engagement"
	SourceDevelopment = "development"
)

// DefaultEngagementBaseline is the neutral score substituted for unmeasured
// engagement signals.
const DefaultEngagementBaseline = 50.0

const (
	passingGrade          = 60.0
	confidenceSaturation  = 30.0
	confidenceVolumeShare = 80.0
	confidenceTelemetry   = 20.0
)

// Evaluation is the output of a metric computation: the category metrics, the
// cohort-independent analytics, and provenance for the score metadata.
type Evaluation struct {
	Metrics         Metrics   `json:"metrics"`
	Analytics       Analytics `json:"analytics"`
	Category        string    `json:"category"`
	DataSources     []string  `json:"data_sources"`
	ConfidenceLevel int       `json:"confidence_level"`
	Baseline        bool      `json:"baseline"`
}

// CalculatorConfig wires a Calculator's collaborators. Engagement and Development
// are optional; nil sources are treated as unavailable.
type CalculatorConfig struct {
	Source             MetricSource
	Engagement         EngagementSource
	Development        DevelopmentSource
	EngagementBaseline *float64
}

// Calculator turns raw source records into category metrics.
type Calculator struct {
	source      MetricSource
	engagement  EngagementSource
	development DevelopmentSource
	baseline    float64
}

// NewCalculator creates a Calculator. A nil EngagementBaseline selects
// DefaultEngagementBaseline.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	baseline := DefaultEngagementBaseline
	if cfg.EngagementBaseline != nil {
		baseline = *cfg.EngagementBaseline
	}
	return &Calculator{
		source:      cfg.Source,
		engagement:  cfg.Engagement,
		development: cfg.Development,
		baseline:    clamp(baseline, 0, 100),
	}
}

type teacherData struct {
	courses     map[uuid.UUID]Course
	ratings     []Rating
	enrollments []Enrollment
}

// Compute derives a teacher's metrics for period. It returns ErrInsufficientData
// when the teacher has neither ratings nor enrollments in the period.
func (c *Calculator) Compute(ctx context.Context, teacherID uuid.UUID, period Period) (Evaluation, error) {
	data, err := c.load(ctx, teacherID, period)
	if err != nil {
		return Evaluation{}, err
	}

	if len(data.ratings) == 0 && len(data.enrollments) == 0 {
		return Evaluation{}, fmt.Errorf("teacher %s in %s: %w", teacherID, period, ErrInsufficientData)
	}

	engagement, err := c.engagementMetrics(ctx, teacherID, period)
	if err != nil {
		return Evaluation{}, err
	}

	development, measuredDev, err := c.developmentMetrics(ctx, teacherID, period, data.courses)
	if err != nil {
		return Evaluation{}, err
	}

	completed := countStatus(data.enrollments, EnrollmentCompleted)

	eval := Evaluation{
		Metrics: Metrics{
			StudentRating:     studentRating(data.ratings, completed),
			CoursePerformance: coursePerformance(data.enrollments),
			Engagement:        engagement,
			Development:       development,
		},
		Analytics: activity(data),
		Category:  primaryCategory(data.courses),
	}

	eval.DataSources = dataSources(!engagement.Baseline, measuredDev)
	eval.ConfidenceLevel = confidence(len(data.ratings)+len(data.enrollments), !engagement.Baseline)
	return eval, nil
}

// Baseline derives a zero-signal evaluation for a teacher with insufficient data:
// rating and course-performance metrics are zero, engagement and development are
// computed as usual (neutral where unmeasured), and confidence is zero.
func (c *Calculator) Baseline(ctx context.Context, teacherID uuid.UUID, period Period) (Evaluation, error) {
	courses, err := c.courses(ctx, teacherID)
	if err != nil {
		return Evaluation{}, err
	}

	engagement, err := c.engagementMetrics(ctx, teacherID, period)
	if err != nil {
		return Evaluation{}, err
	}

	development, measuredDev, err := c.developmentMetrics(ctx, teacherID, period, courses)
	if err != nil {
		return Evaluation{}, err
	}

	data := teacherData{courses: courses}
	return Evaluation{
		Metrics: Metrics{
			StudentRating:     StudentRatingMetrics{Distribution: emptyDistribution()},
			CoursePerformance: CoursePerformanceMetrics{},
			Engagement:        engagement,
			Development:       development,
		},
		Analytics:   activity(data),
		Category:    primaryCategory(courses),
		DataSources: dataSources(!engagement.Baseline, measuredDev),
		Baseline:    true,
	}, nil
}

func (c *Calculator) load(ctx context.Context, teacherID uuid.UUID, period Period) (teacherData, error) {
	courses, err := c.courses(ctx, teacherID)
	if err != nil {
		return teacherData{}, err
	}

	ratingSeq, err := c.source.Ratings(ctx, teacherID, period.Start, period.End)
	if err != nil {
		return teacherData{}, fmt.Errorf("read ratings: %w", err)
	}

	var ratings []Rating
	for r := range ratingSeq {
		if r.Approved && r.Active && period.Contains(r.CreatedAt) && r.Score >= 1 && r.Score <= 5 {
			ratings = append(ratings, r)
		}
	}

	enrollmentSeq, err := c.source.Enrollments(ctx, teacherID, period.Start, period.End)
	if err != nil {
		return teacherData{}, fmt.Errorf("read enrollments: %w", err)
	}

	var enrollments []Enrollment
	for e := range enrollmentSeq {
		if _, owned := courses[e.CourseID]; owned && period.Contains(e.EnrolledAt) {
			enrollments = append(enrollments, e)
		}
	}

	return teacherData{
		courses:     courses,
		ratings:     ratings,
		enrollments: enrollments,
	}, nil
}

func (c *Calculator) courses(ctx context.Context, teacherID uuid.UUID) (map[uuid.UUID]Course, error) {
	seq, err := c.source.Courses(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("read courses: %w", err)
	}

	courses := make(map[uuid.UUID]Course)
	for course := range seq {
		courses[course.ID] = course
	}
	return courses, nil
}

func studentRating(ratings []Rating, completed int) StudentRatingMetrics {
	m := StudentRatingMetrics{Distribution: emptyDistribution()}
	if len(ratings) == 0 {
		return m
	}

	total := 0
	for _, r := range ratings {
		total += r.Score
		m.Distribution[r.Score]++
	}

	m.TotalRatings = len(ratings)
	avg := float64(total) / float64(len(ratings))
	m.AverageRating = round2(avg)

	var responseRatio float64
	if completed > 0 {
		responseRatio = math.Min(float64(len(ratings))/float64(completed), 1)
	}
	m.ResponseRate = round2(responseRatio * 100)

	score := avg/5*70 + responseRatio*20 + math.Min(float64(len(ratings)), 10)
	m.Score = round2(clamp(score, 0, 100))
	return m
}

// coursePerformance applies the missing-grade policy: enrollments without a
// final grade are excluded from both the average grade and the pass rate.
func coursePerformance(enrollments []Enrollment) CoursePerformanceMetrics {
	var m CoursePerformanceMetrics
	m.TotalEnrollments = len(enrollments)
	if m.TotalEnrollments == 0 {
		return m
	}

	var gradeSum float64
	var completedGraded, passed int
	for _, e := range enrollments {
		switch e.Status {
		case EnrollmentCompleted:
			m.CompletedEnrollments++
		case EnrollmentDropped, EnrollmentCancelled:
			m.DroppedEnrollments++
		}

		if e.FinalGrade == nil {
			continue
		}
		m.GradedEnrollments++
		gradeSum += clamp(*e.FinalGrade, 0, 100)

		if e.Status == EnrollmentCompleted {
			completedGraded++
			if *e.FinalGrade >= passingGrade {
				passed++
			}
		}
	}

	completionRate := percent(m.CompletedEnrollments, m.TotalEnrollments)
	dropoutRate := percent(m.DroppedEnrollments, m.TotalEnrollments)
	passRate := percent(passed, completedGraded)

	var averageGrade float64
	if m.GradedEnrollments > 0 {
		averageGrade = gradeSum / float64(m.GradedEnrollments)
	}

	m.CompletionRate = round2(completionRate)
	m.DropoutRate = round2(dropoutRate)
	m.PassRate = round2(passRate)
	m.AverageGrade = round2(averageGrade)

	score := completionRate*0.4 + averageGrade*0.3 + (100-dropoutRate)*0.2 + passRate*0.1
	m.Score = round2(clamp(score, 0, 100))
	return m
}

func (c *Calculator) engagementMetrics(ctx context.Context, teacherID uuid.UUID, period Period) (EngagementMetrics, error) {
	var signals EngagementSignals
	if c.engagement != nil {
		s, err := c.engagement.Engagement(ctx, teacherID, period)
		switch {
		case err == nil:
			signals = s
		case errors.Is(err, ErrSignalsUnavailable):
		default:
			return EngagementMetrics{}, fmt.Errorf("read engagement: %w", err)
		}
	}

	var baseline bool
	response := c.signal(signals.AvgResponseHours, func(h float64) float64 { return 100 - 4*h }, &baseline)
	forum := c.signal(intSignal(signals.ForumPosts), func(p float64) float64 { return p * 5 }, &baseline)
	feedback := c.signal(signals.FeedbackQuality, func(q float64) float64 { return q }, &baseline)
	availability := c.signal(signals.AvailabilityHours, func(h float64) float64 { return h / 20 * 100 }, &baseline)

	m := EngagementMetrics{
		ResponseTimeScore:       response,
		ForumParticipationScore: forum,
		FeedbackQualityScore:    feedback,
		AvailabilityScore:       availability,
		Baseline:                baseline,
	}

	score := m.ResponseTimeScore*0.3 +
		m.ForumParticipationScore*0.3 +
		m.FeedbackQualityScore*0.2 +
		m.AvailabilityScore*0.2
	m.Score = round2(clamp(score, 0, 100))
	return m, nil
}

func (c *Calculator) signal(v *float64, score func(float64) float64, baseline *bool) float64 {
	if v == nil {
		*baseline = true
		return c.baseline
	}
	return round2(clamp(score(*v), 0, 100))
}

func (c *Calculator) developmentMetrics(
	ctx context.Context,
	teacherID uuid.UUID,
	period Period,
	courses map[uuid.UUID]Course,
) (DevelopmentMetrics, bool, error) {
	var signals DevelopmentSignals
	measured := false
	if c.development != nil {
		s, err := c.development.Development(ctx, teacherID, period)
		switch {
		case err == nil:
			signals = s
			measured = true
		case errors.Is(err, ErrSignalsUnavailable):
		default:
			return DevelopmentMetrics{}, false, fmt.Errorf("read development: %w", err)
		}
	}

	var m DevelopmentMetrics
	updated := 0
	for _, course := range courses {
		switch {
		case period.Contains(course.CreatedAt):
			m.CoursesCreated++
		case period.Contains(course.UpdatedAt):
			updated++
		}
	}

	m.ContentUpdates = updated
	if signals.ContentUpdates != nil {
		m.ContentUpdates = *signals.ContentUpdates
	}
	if signals.SkillsImprovement != nil {
		m.SkillsImprovement = round2(*signals.SkillsImprovement)
	}
	if signals.CertificationsEarned != nil {
		m.CertificationsEarned = *signals.CertificationsEarned
	}

	score := float64(m.CoursesCreated)*20 +
		float64(m.ContentUpdates)*2 +
		m.SkillsImprovement*0.4 +
		float64(m.CertificationsEarned)*10
	m.Score = round2(clamp(score, 0, 100))
	return m, measured, nil
}

func activity(data teacherData) Analytics {
	var a Analytics
	for _, course := range data.courses {
		switch course.Status {
		case CourseActive:
			a.ActiveCourses++
		case CourseCompleted:
			a.CompletedCourses++
		}
	}

	students := make(map[uuid.UUID]struct{})
	withEnrollments := make(map[uuid.UUID]struct{})
	for _, e := range data.enrollments {
		students[e.StudentID] = struct{}{}
		withEnrollments[e.CourseID] = struct{}{}
	}
	a.TotalStudents = len(students)
	a.TotalEnrollments = len(data.enrollments)
	if len(withEnrollments) > 0 {
		a.AverageClassSize = round2(float64(a.TotalEnrollments) / float64(len(withEnrollments)))
	}

	for _, r := range data.ratings {
		switch {
		case r.Score >= 4:
			a.Sentiment.Positive++
		case r.Score == 3:
			a.Sentiment.Neutral++
		default:
			a.Sentiment.Negative++
		}
	}
	return a
}

// primaryCategory returns the most frequent course category, ties broken alphabetically.
func primaryCategory(courses map[uuid.UUID]Course) string {
	counts := make(map[string]int)
	for _, course := range courses {
		if course.Category != "" {
			counts[course.Category]++
		}
	}

	names := slices.Sorted(maps.Keys(counts))
	best := ""
	for _, name := range names {
		if best == "" || counts[name] > counts[best] {
			best = name
		}
	}
	return best
}

func dataSources(engagement, development bool) []string {
	sources := []string{SourceRatings, SourceEnrollments, SourceCourses}
	if engagement {
		sources = append(sources, SourceEngagement)
	}
	if development {
		sources = append(sources, SourceDevelopment)
	}
	return sources
}

func confidence(signals int, telemetry bool) int {
	volume := math.Min(float64(signals)/confidenceSaturation, 1) * confidenceVolumeShare
	if telemetry {
		volume += confidenceTelemetry
	}
	return int(math.Round(volume))
}

func countStatus(enrollments []Enrollment, status EnrollmentStatus) int {
	n := 0
	for _, e := range enrollments {
		if e.Status == status {
			n++
		}
	}
	return n
}

func intSignal(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func emptyDistribution() map[int]int {
	return map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
}
