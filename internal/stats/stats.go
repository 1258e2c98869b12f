// Package stats derives dashboard figures from attempt history and renders
// them as text.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/verbavox/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[min(max(idx, 0), last)])
	}
	return b.String()
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// AccuracySeries returns accuracies oldest first from a newest-first history.
func AccuracySeries(results []model.AttemptResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[len(results)-1-i] = float64(r.Accuracy)
	}
	return out
}

// RenderSummary prints the dashboard figures and badges.
func RenderSummary(w io.Writer, s model.Summary, badges []Achievement) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Exercises: %d", s.Exercises),
		fmt.Sprintf("Avg Accuracy: %d%%", s.AverageAccuracy),
		fmt.Sprintf("Streak: %d days", s.Streak),
		fmt.Sprintf("Level: %d", s.Level),
		fmt.Sprintf("Score: %d", s.Score),
		"",
		"Achievements",
	}
	for _, a := range badges {
		mark := "[ ]"
		if a.Unlocked {
			mark = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%s %s - %s", mark, a.Name, a.Description))
	}
	return writeLines(w, append(lines, ""))
}

// RenderHistory prints attempts as a table, newest first.
func RenderHistory(w io.Writer, results []model.AttemptResult, exercises map[string]model.Exercise, now time.Time) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		title := r.ExerciseID
		if ex, ok := exercises[r.ExerciseID]; ok {
			title = ex.Title
		}
		rows = append(rows, []string{
			TimeAgo(r.CompletedAt, now),
			title,
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%d/%d", r.Mistakes, r.TotalWords),
		})
	}
	lines := formatTable([]string{"When", "Exercise", "Accuracy", "Mistakes"}, rows, map[int]bool{2: true, 3: true})
	return writeLines(w, append(append([]string{"History"}, lines...), ""))
}

// RenderBreakdown prints one breakdown table.
func RenderBreakdown(w io.Writer, title string, rows []BreakdownRow) error {
	if len(rows) == 0 {
		return nil
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Label, fmt.Sprintf("%d", r.Exercises), fmt.Sprintf("%d%%", r.Accuracy)})
	}
	lines := formatTable([]string{title, "Exercises", "Accuracy"}, cells, map[int]bool{1: true, 2: true})
	return writeLines(w, append(lines, ""))
}

// RenderLeaderboard prints ranked entries.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry, highlight string) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No users found.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		name := e.Username
		if highlight != "" && e.UserID == highlight {
			name += " (you)"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Rank),
			name,
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.Exercises),
			fmt.Sprintf("%d%%", e.Accuracy),
		})
	}
	lines := formatTable([]string{"#", "User", "Score", "Exercises", "Accuracy"}, rows, map[int]bool{0: true, 2: true, 3: true, 4: true})
	return writeLines(w, lines)
}

// RenderCurves prints the accuracy learning curve.
func RenderCurves(w io.Writer, results []model.AttemptResult, window int) error {
	return RenderCurvesWithSize(w, results, window, 0, 10, false)
}

// RenderCurvesWithSize prints the accuracy curve sized to a given total width.
func RenderCurvesWithSize(w io.Writer, results []model.AttemptResult, window, totalWidth, height int, useColor bool) error {
	if len(results) == 0 {
		return nil
	}
	raw := AccuracySeries(results)
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return Plot(w, "Accuracy Curve", []Series{
		{Name: "Accuracy", Values: raw},
		{Name: fmt.Sprintf("Avg(%d)", window), Values: MovingAverage(raw, window)},
	}, PlotOptions{Width: width, Height: height, Color: useColor})
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
