package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/scoring"
)

const recentCount = 3

// Summarize derives the dashboard figures from a newest-first history.
func Summarize(results []model.AttemptResult, now time.Time) model.Summary {
	avg := scoring.AverageAccuracy(results)
	times := make([]time.Time, len(results))
	for i, r := range results {
		times[i] = r.CompletedAt
	}
	recent := results
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	return model.Summary{
		Exercises:       len(results),
		AverageAccuracy: avg,
		Streak:          Streak(times, now),
		Level:           scoring.Level(len(results)),
		Score:           scoring.Score(len(results), float64(avg)),
		Recent:          append([]model.AttemptResult(nil), recent...),
	}
}

// TimeAgo renders a coarse relative date.
func TimeAgo(t, now time.Time) string {
	days := int(math.Round(dayOf(now).Sub(dayOf(t.In(now.Location()))).Hours() / 24))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week")
	default:
		return plural(days/30, "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Achievement is a dashboard badge.
type Achievement struct {
	Name        string
	Description string
	Unlocked    bool
}

// Achievements evaluates the badge rules against a summary.
func Achievements(s model.Summary) []Achievement {
	perfect := false
	for _, r := range s.Recent {
		if r.Accuracy == 100 {
			perfect = true
			break
		}
	}
	return []Achievement{
		{Name: "First Steps", Description: "Complete your first exercise", Unlocked: s.Exercises >= 1},
		{Name: "Perfect Score", Description: "Get 100% accuracy on an exercise", Unlocked: perfect},
		{Name: "Week Streak", Description: "Practice 7 days in a row", Unlocked: s.Streak >= 7},
		{Name: "Dedicated Learner", Description: "Complete 10 exercises", Unlocked: s.Exercises >= 10},
		{Name: "Accuracy Master", Description: "Average 90% over at least 5 exercises", Unlocked: s.AverageAccuracy >= 90 && s.Exercises >= 5},
	}
}
