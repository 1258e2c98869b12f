package scoring

import (
	"math"

	"github.com/verte-zerg/verbavox/internal/model"
)

// Multiplier maps an average accuracy to its per-exercise bonus.
func Multiplier(avgAccuracy float64) int {
	switch {
	case avgAccuracy > 95:
		return 20
	case avgAccuracy > 85:
		return 15
	case avgAccuracy > 70:
		return 10
	case avgAccuracy > 50:
		return 5
	default:
		return 0
	}
}

// Score awards 10 points per exercise plus the accuracy bonus per exercise.
func Score(exercises int, avgAccuracy float64) int {
	if exercises <= 0 {
		return 0
	}
	return exercises*10 + exercises*Multiplier(avgAccuracy)
}

// Level is one plus a level per ten completed exercises.
func Level(exercises int) int {
	if exercises < 0 {
		exercises = 0
	}
	return exercises/10 + 1
}

// AverageAccuracy returns the rounded mean accuracy of the results.
func AverageAccuracy(results []model.AttemptResult) int {
	if len(results) == 0 {
		return 0
	}
	total := 0
	for _, r := range results {
		total += r.Accuracy
	}
	return int(math.Round(float64(total) / float64(len(results))))
}
