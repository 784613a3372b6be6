package scoring_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		rank, total, want int
	}{
		{1, 1, 100},
		{1, 3, 100},
		{2, 3, 67},
		{3, 3, 33},
		{10, 10, 10},
		{7, 7, 14},
		{0, 0, 0},
	}

	for _, tt := range tests {
		if got := scoring.Percentile(tt.rank, tt.total); got != tt.want {
			t.Errorf("Percentile(%d, %d) = %d, want %d", tt.rank, tt.total, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	t.Run("three teacher cohort", func(t *testing.T) {
		entries := []scoring.RankEntry{
			{ID: uuid.New(), Score: 80, Department: "science", Category: "math"},
			{ID: uuid.New(), Score: 95, Department: "science", Category: "physics"},
			{ID: uuid.New(), Score: 65, Department: "arts", Category: "math"},
		}

		got := scoring.Rank(entries)

		want := []scoring.Ranking{
			{OverallRank: 2, DepartmentRank: 2, CategoryRank: 1, TotalTeachers: 3, Percentile: 67},
			{OverallRank: 1, DepartmentRank: 1, CategoryRank: 1, TotalTeachers: 3, Percentile: 100},
			{OverallRank: 3, DepartmentRank: 1, CategoryRank: 2, TotalTeachers: 3, Percentile: 33},
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Rank()[%d] = %+v, want %+v", i, got[i], want[i])
			}
		}

		grades := []scoring.Grade{scoring.GradeCPlus, scoring.GradeA, scoring.GradeD}
		for i, e := range entries {
			if g := scoring.GradeFor(e.Score); g != grades[i] {
				t.Errorf("GradeFor(%d) = %s, want %s", e.Score, g, grades[i])
			}
		}
	})

	t.Run("grades follow the bucket table", func(t *testing.T) {
		entries := []scoring.RankEntry{
			{ID: uuid.New(), Score: 90},
			{ID: uuid.New(), Score: 75},
			{ID: uuid.New(), Score: 60},
		}

		got := scoring.Rank(entries)

		wantPct := []int{100, 67, 33}
		wantGrade := []scoring.Grade{scoring.GradeBPlus, scoring.GradeC, scoring.GradeD}
		for i, e := range entries {
			if got[i].OverallRank != i+1 || got[i].Percentile != wantPct[i] {
				t.Errorf("Rank()[%d] = %+v, want rank %d percentile %d", i, got[i], i+1, wantPct[i])
			}
			if g := scoring.GradeFor(e.Score); g != wantGrade[i] {
				t.Errorf("GradeFor(%d) = %s, want %s", e.Score, g, wantGrade[i])
			}
		}
	})

	t.Run("ties keep input order", func(t *testing.T) {
		entries := []scoring.RankEntry{
			{ID: uuid.New(), Score: 70},
			{ID: uuid.New(), Score: 70},
			{ID: uuid.New(), Score: 90},
		}

		got := scoring.Rank(entries)

		if got[2].OverallRank != 1 || got[0].OverallRank != 2 || got[1].OverallRank != 3 {
			t.Errorf("ranks = %d,%d,%d want 2,3,1", got[0].OverallRank, got[1].OverallRank, got[2].OverallRank)
		}
	})

	t.Run("blank department and category", func(t *testing.T) {
		got := scoring.Rank([]scoring.RankEntry{{ID: uuid.New(), Score: 50}})

		if got[0].DepartmentRank != 0 || got[0].CategoryRank != 0 {
			t.Errorf("Ranking = %+v, want zero department and category rank", got[0])
		}
		if got[0].Percentile != 100 {
			t.Errorf("Percentile = %d, want 100", got[0].Percentile)
		}
	})

	t.Run("empty cohort", func(t *testing.T) {
		if got := scoring.Rank(nil); len(got) != 0 {
			t.Errorf("Rank(nil) = %v, want empty", got)
		}
	})
}
