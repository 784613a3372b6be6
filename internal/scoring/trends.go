package scoring

import "math"

// Trend classifies a metric's movement from the previous period.
type Trend string

// Trend values. TrendNew means there is no previous period to compare against.
const (
	TrendNew       Trend = "new"
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

const (
	scoreTrendBand      = 2.0
	ratingTrendBand     = 0.1
	enrollmentTrendBand = 0.05
)

// Trends compares a record with the teacher's previous record.
type Trends struct {
	Score      Trend `json:"score"`
	Rating     Trend `json:"rating"`
	Enrollment Trend `json:"enrollment"`
}

// Previous carries the values of a teacher's prior record that trends and
// goals compare against.
type Previous struct {
	Score            int
	AverageRating    float64
	TotalEnrollments int
}

// ComputeTrends classifies score, rating and enrollment movement. A nil
// previous yields TrendNew across the board.
func ComputeTrends(overall int, metrics Metrics, analytics Analytics, previous *Previous) Trends {
	if previous == nil {
		return Trends{Score: TrendNew, Rating: TrendNew, Enrollment: TrendNew}
	}

	enrollmentBand := math.Max(1, float64(previous.TotalEnrollments)*enrollmentTrendBand)

	return Trends{
		Score:      classify(float64(overall-previous.Score), scoreTrendBand),
		Rating:     classify(round2(metrics.StudentRating.AverageRating-previous.AverageRating), ratingTrendBand),
		Enrollment: classify(float64(analytics.TotalEnrollments-previous.TotalEnrollments), enrollmentBand),
	}
}

func classify(delta, band float64) Trend {
	switch {
	case delta >= band:
		return TrendImproving
	case delta <= -band:
		return TrendDeclining
	}
	return TrendStable
}
