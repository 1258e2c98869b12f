package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/verbavox/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{10, 20, 30, 40}, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MovingAverage = %v, want %v", got, want)
		}
	}
	if got := MovingAverage([]float64{1, 2}, 1); got[1] != 2 {
		t.Fatalf("window 1 should copy: %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("Sparkline = %q", got)
	}
	if got := Sparkline([]float64{5, 5}); got != "++" {
		t.Fatalf("flat Sparkline = %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatal("empty sparkline")
	}
}

func TestAccuracySeriesOldestFirst(t *testing.T) {
	got := AccuracySeries([]model.AttemptResult{{Accuracy: 3}, {Accuracy: 2}, {Accuracy: 1}})
	if got[0] != 1 || got[2] != 3 {
		t.Fatalf("AccuracySeries = %v", got)
	}
}

func TestRenderHistoryAndLeaderboard(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := RenderHistory(&buf, []model.AttemptResult{
		{ExerciseID: "2", Accuracy: 75, Mistakes: 1, TotalWords: 4, CompletedAt: now},
	}, map[string]model.Exercise{"2": {Title: "Travel Vocabulary"}}, now)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Travel Vocabulary") || !strings.Contains(out, "Today") || !strings.Contains(out, "1/4") {
		t.Fatalf("unexpected history output:\n%s", out)
	}

	buf.Reset()
	if err := RenderLeaderboard(&buf, []model.LeaderboardEntry{{Rank: 1, UserID: "u1", Username: "mia", Score: 50}}, "u1"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "mia (you)") {
		t.Fatalf("expected highlight:\n%s", buf.String())
	}

	buf.Reset()
	if err := RenderLeaderboard(&buf, nil, ""); err != nil || !strings.Contains(buf.String(), "No users found.") {
		t.Fatalf("empty leaderboard: %q %v", buf.String(), err)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	s := model.Summary{Exercises: 1, AverageAccuracy: 100, Level: 1, Score: 30}
	if err := RenderSummary(&buf, s, Achievements(s)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Score: 30") || !strings.Contains(out, "[x] First Steps") || !strings.Contains(out, "[ ] Week Streak") {
		t.Fatalf("unexpected summary output:\n%s", out)
	}
}
