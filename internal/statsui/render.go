package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/results"
	"github.com/verte-zerg/verbavox/internal/stats"
)

const plotHeight = 10

func renderOverview(r stats.Report, window, width int) string {
	if r.Summary.Exercises == 0 {
		return "No attempts yet. Run `verbavox` to practice."
	}
	parts := []string{
		renderCards(r.Summary, width),
		renderAchievements(r.Achievements),
	}
	if recent := renderRecent(r); recent != "" {
		parts = append(parts, recent)
	}
	if len(r.History) > 0 {
		var buf bytes.Buffer
		if err := stats.RenderCurvesWithSize(&buf, r.History, window, width, plotHeight, true); err != nil {
			parts = append(parts, fmt.Sprintf("Failed to render curves: %v", err))
		} else {
			parts = append(parts, strings.TrimRight(buf.String(), "\n"))
		}
	}
	if r.HistorySource == results.SourceFallback {
		parts = append(parts, headerStyle.Render("Showing results saved on this device."))
	}
	return strings.Join(parts, "\n\n")
}

func renderCards(s model.Summary, width int) string {
	cards := []string{
		metricCard("Exercises", fmt.Sprintf("%d", s.Exercises)),
		metricCard("Avg Accuracy", fmt.Sprintf("%d%%", s.AverageAccuracy)),
		metricCard("Streak", fmt.Sprintf("%d days", s.Streak)),
		metricCard("Level", fmt.Sprintf("%d", s.Level)),
		metricCard("Score", fmt.Sprintf("%d", s.Score)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func renderAchievements(badges []stats.Achievement) string {
	lines := []string{cardTitleStyle.Render("Achievements")}
	for _, b := range badges {
		if b.Unlocked {
			lines = append(lines, unlockedStyle.Render("★ "+b.Name)+"  "+headerStyle.Render(b.Description))
			continue
		}
		lines = append(lines, lockedStyle.Render("☆ "+b.Name)+"  "+headerStyle.Render(b.Description))
	}
	return strings.Join(lines, "\n")
}

func renderRecent(r stats.Report) string {
	if len(r.Summary.Recent) == 0 {
		return ""
	}
	lines := []string{cardTitleStyle.Render("Recent")}
	for _, a := range r.Summary.Recent {
		lines = append(lines, fmt.Sprintf("%-12s %-28s %3d%%",
			stats.TimeAgo(a.CompletedAt, r.Now), exerciseTitle(r.Exercises, a.ExerciseID), a.Accuracy))
	}
	return strings.Join(lines, "\n")
}

func exerciseTitle(exercises map[string]model.Exercise, id string) string {
	if ex, ok := exercises[id]; ok && ex.Title != "" {
		return ex.Title
	}
	return "Exercise " + id
}

func renderBreakdown(r stats.Report) string {
	if len(r.History) == 0 {
		return fmt.Sprintf("No attempts in %s.", strings.ToLower(r.Period.Label()))
	}
	var buf bytes.Buffer
	if err := stats.RenderBreakdown(&buf, "Difficulty", r.ByDifficulty); err != nil {
		return err.Error()
	}
	if err := stats.RenderBreakdown(&buf, "Category", r.ByCategory); err != nil {
		return err.Error()
	}
	return strings.TrimRight(buf.String(), "\n")
}

func historyTableData(r stats.Report) ([]table.Column, []table.Row) {
	cols := []table.Column{
		{Title: "When", Width: 12},
		{Title: "Exercise", Width: 26},
		{Title: "Level", Width: 9},
		{Title: "Accuracy", Width: 8},
		{Title: "Mistakes", Width: 8},
	}
	rows := make([]table.Row, 0, len(r.History))
	for _, a := range r.History {
		level := ""
		if ex, ok := r.Exercises[a.ExerciseID]; ok {
			level = string(ex.Difficulty)
		}
		rows = append(rows, table.Row{
			stats.TimeAgo(a.CompletedAt, r.Now),
			exerciseTitle(r.Exercises, a.ExerciseID),
			level,
			fmt.Sprintf("%d%%", a.Accuracy),
			fmt.Sprintf("%d/%d", a.Mistakes, a.TotalWords),
		})
	}
	return cols, rows
}

func leaderboardTableData(r stats.Report) ([]table.Column, []table.Row) {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "User", Width: 24},
		{Title: "Score", Width: 7},
		{Title: "Exercises", Width: 9},
		{Title: "Accuracy", Width: 8},
	}
	rows := make([]table.Row, 0, len(r.Leaderboard))
	for _, e := range r.Leaderboard {
		name := e.Username
		if e.UserID == r.UserID {
			name += " (you)"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", e.Rank),
			name,
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.Exercises),
			fmt.Sprintf("%d%%", e.Accuracy),
		})
	}
	return cols, rows
}

func newTable(height int) table.Model {
	t := table.New(table.WithHeight(max(1, height-1)))
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
