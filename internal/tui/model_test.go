package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/practice"
	"github.com/verte-zerg/verbavox/internal/results"
	"github.com/verte-zerg/verbavox/internal/store"
)

var exercises = []model.Exercise{
	{ID: "1", Title: "Daily Routines", Difficulty: model.DifficultySimple, Text: "I wake up early"},
	{ID: "2", Title: "Travel Vocabulary", Difficulty: model.DifficultySimple, Text: "I am planning a trip", AudioURL: "travel.mp3"},
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	svc := practice.NewService("mia", results.New(store.NewMemory()), nil, nil, nil)
	return NewModel(svc, exercises, "", nil)
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestSubmitFlow(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "I wake up late")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if m.phase != phaseSubmitting {
		t.Fatalf("expected submitting phase, got %v", m.phase)
	}
	m.Update(cmd())

	if m.phase != phaseReview || m.sub == nil {
		t.Fatalf("expected review phase")
	}
	if m.sub.Result.Accuracy != 75 {
		t.Fatalf("unexpected accuracy %d", m.sub.Result.Accuracy)
	}
	if m.status != "Results saved on this device." || !m.warn {
		t.Fatalf("unexpected status %q warn=%v", m.status, m.warn)
	}
	if len(m.history) != 1 {
		t.Fatalf("expected history to grow, got %d", len(m.history))
	}
	view := m.View()
	if !strings.Contains(view, "Accuracy 75%") || !strings.Contains(view, "Last 75%") {
		t.Fatalf("view missing results:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.phase != phaseTyping || m.input.Value() != "" || m.sub != nil {
		t.Fatalf("expected reset")
	}
}

func TestReviewCountsSoundAlikeWords(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "I wake up earley")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(cmd())

	if got := m.renderStatus(); !strings.Contains(got, "1 sounded close") {
		t.Fatalf("status missing near-miss count: %q", got)
	}
}

func TestSubmitEmptyShowsError(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("expected no command for empty submission")
	}
	if m.status != practice.ErrEmptySubmission.Error() || m.phase != phaseTyping {
		t.Fatalf("unexpected state: %q %v", m.status, m.phase)
	}
}

type failingSubmitter struct{}

func (failingSubmitter) Submit(context.Context, model.Exercise, string) (practice.Submission, error) {
	return practice.Submission{}, errors.New("boom")
}

func TestSubmitErrorReturnsToTyping(t *testing.T) {
	m := NewModel(failingSubmitter{}, exercises, "", nil)
	typeText(m, "x")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(cmd())
	if m.phase != phaseTyping || m.status != "boom" {
		t.Fatalf("unexpected state: %q %v", m.status, m.phase)
	}
}

func TestNextExerciseCycles(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.exercise().ID != "2" {
		t.Fatalf("expected second exercise")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.exercise().ID != "1" {
		t.Fatalf("expected wrap to first exercise")
	}
}

func TestPlayAudioWithoutPlayer(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if cmd != nil {
		t.Fatal("expected no command without player")
	}
	if m.status != ErrNoPlayer.Error() {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestPlayerCommand(t *testing.T) {
	cmd, err := playerCommand("mpv --no-video", "travel.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cmd.Args, " ") != "mpv --no-video travel.mp3" {
		t.Fatalf("unexpected args %v", cmd.Args)
	}
	if _, err := playerCommand("mpv", ""); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestFooterShowsHistory(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	m := NewModel(failingSubmitter{}, exercises, "", []model.AttemptResult{
		{Accuracy: 80, CompletedAt: now},
		{Accuracy: 60, CompletedAt: now.AddDate(0, 0, -1)},
	})
	m.now = func() time.Time { return now }
	out := m.renderFooter()
	for _, want := range []string{"Last 80%", "Avg 70%", "Streak 2", "Level 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}
