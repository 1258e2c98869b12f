// Package tui provides the Bubble Tea practice screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/practice"
	"github.com/verte-zerg/verbavox/internal/scoring"
	statsPkg "github.com/verte-zerg/verbavox/internal/stats"
)

// Submitter scores and persists one attempt.
type Submitter interface {
	Submit(ctx context.Context, ex model.Exercise, text string) (practice.Submission, error)
}

type phase int

const (
	phaseTyping phase = iota
	phaseSubmitting
	phaseReview
)

type submittedMsg struct {
	sub practice.Submission
	err error
}

type audioMsg struct {
	err error
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	svc       Submitter
	exercises []model.Exercise
	current   int
	player    string
	history   []model.AttemptResult
	now       func() time.Time

	width  int
	height int

	input  textarea.Model
	phase  phase
	sub    *practice.Submission
	status string
	warn   bool
}

var (
	correctStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	wrongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	nearStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Underline(true)
	typedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Strikethrough(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

const helpLine = "ctrl+p play · ctrl+s submit · ctrl+r retry · ctrl+n next · esc quit"

// NewModel constructs a practice TUI over exercises, starting at the first one.
// history is the user's newest-first attempt history used for the footer.
func NewModel(svc Submitter, exercises []model.Exercise, player string, history []model.AttemptResult) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type what you hear..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Focus()
	return &Model{
		svc:       svc,
		exercises: exercises,
		player:    strings.TrimSpace(player),
		history:   history,
		now:       time.Now,
		input:     ta,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) exercise() model.Exercise {
	if len(m.exercises) == 0 {
		return model.Exercise{}
	}
	return m.exercises[m.current]
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(m.contentWidth())
		m.input.SetHeight(max(3, m.height/4))
		return m, nil
	case submittedMsg:
		return m.handleSubmitted(msg), nil
	case audioMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Could not play audio: %v", msg.err), true)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlP:
			return m, m.playAudio()
		case tea.KeyCtrlR:
			m.reset()
			return m, textarea.Blink
		case tea.KeyCtrlN:
			if len(m.exercises) > 0 {
				m.current = (m.current + 1) % len(m.exercises)
			}
			m.reset()
			return m, textarea.Blink
		case tea.KeyCtrlS:
			if m.phase != phaseTyping {
				return m, nil
			}
			return m, m.submit()
		}
	}
	if m.phase != phaseTyping {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		m.setStatus(practice.ErrEmptySubmission.Error(), true)
		return nil
	}
	m.phase = phaseSubmitting
	m.setStatus("Checking...", false)
	ex := m.exercise()
	return func() tea.Msg {
		sub, err := m.svc.Submit(context.Background(), ex, text)
		return submittedMsg{sub: sub, err: err}
	}
}

func (m *Model) handleSubmitted(msg submittedMsg) *Model {
	if msg.err != nil {
		m.phase = phaseTyping
		m.setStatus(msg.err.Error(), true)
		return m
	}
	m.phase = phaseReview
	m.sub = &msg.sub
	m.input.Blur()
	if msg.sub.Outcome.Saved() {
		m.history = append([]model.AttemptResult{msg.sub.Attempt}, m.history...)
	}
	fb := msg.sub.Feedback
	m.setStatus(fb.Message, fb.Severity != practice.SeverityInfo)
	return m
}

func (m *Model) reset() {
	m.phase = phaseTyping
	m.sub = nil
	m.input.Reset()
	m.input.Focus()
	m.setStatus("", false)
}

func (m *Model) setStatus(s string, warn bool) {
	m.status = s
	m.warn = warn
}

// ErrNoPlayer is reported when no audio player command is configured.
var ErrNoPlayer = errors.New("no audio player configured (set practice.audio-player)")

// ErrNoAudio is reported when the exercise has no audio.
var ErrNoAudio = errors.New("this exercise has no audio")

// playerCommand builds the player invocation for the exercise audio.
func playerCommand(player, audio string) (*exec.Cmd, error) {
	fields := strings.Fields(player)
	if len(fields) == 0 {
		return nil, ErrNoPlayer
	}
	if strings.TrimSpace(audio) == "" {
		return nil, ErrNoAudio
	}
	args := append(fields[1:], audio)
	return exec.Command(fields[0], args...), nil
}

func (m *Model) playAudio() tea.Cmd {
	cmd, err := playerCommand(m.player, m.exercise().AudioURL)
	if err != nil {
		m.setStatus(err.Error(), true)
		return nil
	}
	m.setStatus("Playing...", false)
	return func() tea.Msg {
		if err := cmd.Start(); err != nil {
			return audioMsg{err: err}
		}
		go func() {
			// Reap the player; its exit status is not interesting.
			_ = cmd.Wait()
		}()
		return audioMsg{}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	ex := m.exercise()
	if ex.ID == "" {
		return "No exercises available.\n"
	}
	width := m.contentWidth()
	header := titleStyle.Render(ex.Title) + footerStyle.Render(fmt.Sprintf("  %s · %s · %s", ex.Difficulty, ex.Category, ex.Duration))

	var body string
	if m.phase == phaseReview && m.sub != nil {
		body = wrapStyledRunes(buildReviewRunes(m.sub.Review), width)
	} else {
		body = m.input.View()
	}
	parts := []string{header, "", body}
	if s := m.renderStatus(); s != "" {
		parts = append(parts, "", s)
	}
	content := lipgloss.NewStyle().Width(width).Render(strings.Join(parts, "\n"))

	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	body = lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(1, int(float64(m.width)*0.70))
}

func (m *Model) renderStatus() string {
	if m.sub != nil && m.phase == phaseReview {
		r := m.sub.Result
		line := fmt.Sprintf("Accuracy %d%% · %d of %d words wrong", r.Accuracy, r.Mistakes, r.TotalWords)
		if n := scoring.NearMisses(m.sub.Review); n > 0 {
			line += fmt.Sprintf(" · %d sounded close", n)
		}
		style := correctStyle
		if !m.sub.Outcome.Saved() {
			style = errorStyle
		} else if m.warn {
			style = warnStyle
		}
		return line + "\n" + style.Render(m.status)
	}
	if m.status == "" {
		return ""
	}
	if m.warn {
		return warnStyle.Render(m.status)
	}
	return footerStyle.Render(m.status)
}

func (m *Model) renderFooter() string {
	segments := []string{helpLine}
	if len(m.history) > 0 {
		s := statsPkg.Summarize(m.history, m.now())
		segments = append(segments,
			fmt.Sprintf("Last %d%%", m.history[0].Accuracy),
			fmt.Sprintf("Avg %d%%", s.AverageAccuracy),
			fmt.Sprintf("Streak %d", s.Streak),
			fmt.Sprintf("Level %d", s.Level),
		)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
