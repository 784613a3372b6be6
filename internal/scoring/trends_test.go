package scoring_test

import (
	"testing"

	"github.com/JaimeStill/merit/internal/scoring"
)

func TestComputeTrends(t *testing.T) {
	withRating := func(avg float64) scoring.Metrics {
		var m scoring.Metrics
		m.StudentRating.AverageRating = avg
		return m
	}

	tests := []struct {
		name        string
		overall     int
		avg         float64
		enrollments int
		previous    *scoring.Previous
		want        scoring.Trends
	}{
		{
			name: "no previous",
			want: scoring.Trends{Score: scoring.TrendNew, Rating: scoring.TrendNew, Enrollment: scoring.TrendNew},
		},
		{
			name:        "improving",
			overall:     72,
			avg:         4.6,
			enrollments: 110,
			previous:    &scoring.Previous{Score: 70, AverageRating: 4.5, TotalEnrollments: 100},
			want:        scoring.Trends{Score: scoring.TrendImproving, Rating: scoring.TrendImproving, Enrollment: scoring.TrendImproving},
		},
		{
			name:        "stable",
			overall:     71,
			avg:         4.55,
			enrollments: 104,
			previous:    &scoring.Previous{Score: 70, AverageRating: 4.5, TotalEnrollments: 100},
			want:        scoring.Trends{Score: scoring.TrendStable, Rating: scoring.TrendStable, Enrollment: scoring.TrendStable},
		},
		{
			name:        "declining",
			overall:     60,
			avg:         3.9,
			enrollments: 90,
			previous:    &scoring.Previous{Score: 70, AverageRating: 4.5, TotalEnrollments: 100},
			want:        scoring.Trends{Score: scoring.TrendDeclining, Rating: scoring.TrendDeclining, Enrollment: scoring.TrendDeclining},
		},
		{
			name:        "small cohort uses one enrollment band",
			overall:     70,
			avg:         4.5,
			enrollments: 4,
			previous:    &scoring.Previous{Score: 70, AverageRating: 4.5, TotalEnrollments: 3},
			want:        scoring.Trends{Score: scoring.TrendStable, Rating: scoring.TrendStable, Enrollment: scoring.TrendImproving},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoring.ComputeTrends(tt.overall, withRating(tt.avg), scoring.Analytics{TotalEnrollments: tt.enrollments}, tt.previous)
			if got != tt.want {
				t.Errorf("ComputeTrends() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
