package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/scoring"
)

// Rank scores leaderboard rows and orders them by score, then accuracy, then
// username. Ranks are assigned before the search filter so a match keeps its
// overall position.
func Rank(rows []model.LeaderboardRow, search string) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		if r.Exercises <= 0 {
			continue
		}
		name := r.Username
		if name == "" {
			name = r.UserID
		}
		entries = append(entries, model.LeaderboardEntry{
			UserID:    r.UserID,
			Username:  name,
			Score:     scoring.Score(r.Exercises, r.Accuracy),
			Exercises: r.Exercises,
			Accuracy:  int(math.Round(r.Accuracy)),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		return strings.ToLower(a.Username) < strings.ToLower(b.Username)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return entries
	}
	out := entries[:0]
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Username), q) {
			out = append(out, e)
		}
	}
	return out
}
