package scoring

import "slices"

// Achievement names derived from metrics.
const (
	BadgeTopRated        = "Top Rated Instructor"
	BadgeHighCompletion  = "High Completion Rate"
	BadgePopular         = "Popular Instructor"
	MilestoneTenCourses  = "10 Active Courses"
	MilestoneHundredStud = "100 Students"
	MilestoneFiftyReview = "50 Reviews"
	RecognitionEngaged   = "Highly Engaged Instructor"
	RecognitionLearner   = "Lifelong Learner"
)

// Achievements are append-only, sorted, duplicate-free sets of earned titles.
type Achievements struct {
	Badges       []string `json:"badges"`
	Milestones   []string `json:"milestones"`
	Recognitions []string `json:"recognitions"`
	Awards       []string `json:"awards"`
}

// EvaluateAchievements derives badges, milestones and recognitions from a
// period's metrics. Awards are granted only through review.
func EvaluateAchievements(metrics Metrics, analytics Analytics) Achievements {
	var a Achievements

	if metrics.StudentRating.AverageRating >= 4.5 {
		a.Badges = append(a.Badges, BadgeTopRated)
	}
	if metrics.CoursePerformance.CompletionRate >= 90 {
		a.Badges = append(a.Badges, BadgeHighCompletion)
	}
	if analytics.TotalStudents >= 1000 {
		a.Badges = append(a.Badges, BadgePopular)
	}

	if analytics.ActiveCourses >= 10 {
		a.Milestones = append(a.Milestones, MilestoneTenCourses)
	}
	if analytics.TotalStudents >= 100 {
		a.Milestones = append(a.Milestones, MilestoneHundredStud)
	}
	if metrics.StudentRating.TotalRatings >= 50 {
		a.Milestones = append(a.Milestones, MilestoneFiftyReview)
	}

	if metrics.Engagement.Score >= 90 {
		a.Recognitions = append(a.Recognitions, RecognitionEngaged)
	}
	if metrics.Development.Score >= 80 {
		a.Recognitions = append(a.Recognitions, RecognitionLearner)
	}

	return a.normalize()
}

// Merge returns the union of a and other.
func (a Achievements) Merge(other Achievements) Achievements {
	return Achievements{
		Badges:       union(a.Badges, other.Badges),
		Milestones:   union(a.Milestones, other.Milestones),
		Recognitions: union(a.Recognitions, other.Recognitions),
		Awards:       union(a.Awards, other.Awards),
	}
}

// Empty reports whether no achievement has been earned.
func (a Achievements) Empty() bool {
	return len(a.Badges)+len(a.Milestones)+len(a.Recognitions)+len(a.Awards) == 0
}

func (a Achievements) normalize() Achievements {
	return a.Merge(Achievements{})
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if s != "" {
			out = append(out, s)
		}
	}
	for _, s := range b {
		if s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
