package stats

import (
	"sort"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/scoring"
)

// BreakdownRow aggregates attempts under one label.
type BreakdownRow struct {
	Label     string
	Exercises int
	Accuracy  int
}

// Breakdown groups attempts by difficulty and by category. Attempts whose
// exercise is unknown are grouped under "Other".
func Breakdown(results []model.AttemptResult, exercises map[string]model.Exercise) (byDifficulty, byCategory []BreakdownRow) {
	diff := map[string][]model.AttemptResult{}
	cat := map[string][]model.AttemptResult{}
	for _, r := range results {
		ex, ok := exercises[r.ExerciseID]
		d, c := "Other", "Other"
		if ok {
			d = string(ex.Difficulty)
			if ex.Category != "" {
				c = ex.Category
			}
		}
		diff[d] = append(diff[d], r)
		cat[c] = append(cat[c], r)
	}

	for _, d := range model.Difficulties {
		if rs, ok := diff[string(d)]; ok {
			byDifficulty = append(byDifficulty, row(string(d), rs))
			delete(diff, string(d))
		}
	}
	byDifficulty = append(byDifficulty, sortedRows(diff)...)
	byCategory = sortedRows(cat)
	return byDifficulty, byCategory
}

func sortedRows(groups map[string][]model.AttemptResult) []BreakdownRow {
	out := make([]BreakdownRow, 0, len(groups))
	for label, rs := range groups {
		out = append(out, row(label, rs))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Exercises != out[j].Exercises {
			return out[i].Exercises > out[j].Exercises
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func row(label string, rs []model.AttemptResult) BreakdownRow {
	return BreakdownRow{Label: label, Exercises: len(rs), Accuracy: scoring.AverageAccuracy(rs)}
}
