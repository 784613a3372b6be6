package scoring

import (
	"math"
	"slices"

	"github.com/google/uuid"
)

// Ranking places a record within its period cohort. DepartmentRank and
// CategoryRank are 0 when the record has no department or category.
type Ranking struct {
	OverallRank    int `json:"overall_rank"`
	DepartmentRank int `json:"department_rank"`
	CategoryRank   int `json:"category_rank"`
	TotalTeachers  int `json:"total_teachers"`
	Percentile     int `json:"percentile"`
}

// RankEntry is one cohort member as seen by Rank.
type RankEntry struct {
	ID         uuid.UUID
	Score      int
	Department string
	Category   string
}

// Rank orders entries by descending score and assigns 1-based overall,
// department and category ranks. Ties keep input order, so callers pass
// entries ordered by generation time. The result is index-aligned with entries.
func Rank(entries []RankEntry) []Ranking {
	total := len(entries)
	rankings := make([]Ranking, total)
	if total == 0 {
		return rankings
	}

	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return entries[b].Score - entries[a].Score
	})

	departments := make(map[string]int)
	categories := make(map[string]int)

	for pos, idx := range order {
		e := entries[idx]
		r := Ranking{
			OverallRank:   pos + 1,
			TotalTeachers: total,
			Percentile:    Percentile(pos+1, total),
		}
		if e.Department != "" {
			departments[e.Department]++
			r.DepartmentRank = departments[e.Department]
		}
		if e.Category != "" {
			categories[e.Category]++
			r.CategoryRank = categories[e.Category]
		}
		rankings[idx] = r
	}
	return rankings
}

// Percentile returns round((total − rank + 1) / total × 100), 0 for an empty cohort.
func Percentile(rank, total int) int {
	if total <= 0 || rank <= 0 {
		return 0
	}
	return int(math.Round(float64(total-rank+1) / float64(total) * 100))
}
