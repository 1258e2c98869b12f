// Package statsui provides the Bubble Tea dashboard interface.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/verbavox/internal/events"
	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/results"
	"github.com/verte-zerg/verbavox/internal/stats"
)

const (
	tabOverview = iota
	tabHistory
	tabBreakdown
	tabLeaderboard
)

const (
	fieldPeriod = iota
	fieldSince
	fieldLast
	fieldWindow
	fieldSearch
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	unlockedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	lockedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
)

// Loader builds a report for the given filters.
type Loader func(ctx context.Context, cfg model.StatsConfig) (stats.Report, error)

// completedMsg is delivered when another screen saved an attempt.
type completedMsg events.Completed

// Model implements the Bubble Tea dashboard.
type Model struct {
	load    Loader
	cfg     model.StatsConfig
	updates <-chan events.Completed

	report stats.Report
	errMsg string
	notice string

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	history     table.Model
	leaderboard table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a dashboard model. updates may be nil; when set, every
// event received triggers a reload.
func NewModel(load Loader, cfg model.StatsConfig, updates <-chan events.Completed) *Model {
	if cfg.CurveWindow < 1 {
		cfg.CurveWindow = 5
	}
	m := &Model{
		load:        load,
		cfg:         cfg,
		updates:     updates,
		tabs:        []string{"Overview", "History", "Breakdown", "Leaderboard"},
		history:     newTable(1),
		leaderboard: newTable(1),
	}
	m.initInputs()
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return waitForCompleted(m.updates)
}

func waitForCompleted(ch <-chan events.Completed) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return completedMsg(ev)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case completedMsg:
		m.notice = fmt.Sprintf("New result: exercise %s at %d%%", msg.ExerciseID, msg.Accuracy)
		m.refreshReport()
		return m, waitForCompleted(m.updates)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "p":
		m.cyclePeriod(true)
		return m, nil
	case "P":
		m.cyclePeriod(false)
		return m, nil
	case "=":
		m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
		m.renderTabContents()
		return m, nil
	case "-":
		m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
		m.renderTabContents()
		return m, nil
	case "r":
		m.refreshReport()
		return m, nil
	case "/":
		return m.startFilter()
	case "g", "home":
		if t := m.activeTable(); t != nil {
			t.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case "G", "end":
		if t := m.activeTable(); t != nil {
			t.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	}
	var cmd tea.Cmd
	if t := m.activeTable(); t != nil {
		*t, cmd = t.Update(msg)
		return m, cmd
	}
	m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) activeTable() *table.Model {
	switch m.activeTab {
	case tabHistory:
		return &m.history
	case tabLeaderboard:
		return &m.leaderboard
	}
	return nil
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.history.Blur()
	m.leaderboard.Blur()
	if t := m.activeTable(); t != nil {
		t.Focus()
	}
}

func (m *Model) cyclePeriod(forward bool) {
	p, err := stats.ParsePeriod(m.cfg.Period)
	if err != nil {
		p = stats.PeriodAll
	}
	if forward {
		p = p.Next()
	} else {
		p = p.Prev()
	}
	m.cfg.Period = string(p)
	m.cfg.Since = nil
	m.refreshReport()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && (m.errMsg != "" || m.notice != "") {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	setTableSize(&m.history, m.width, bodyHeight)
	setTableSize(&m.leaderboard, m.width, bodyHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

// setTableSize fits the table's rendered height, header included, to bodyHeight.
func setTableSize(t *table.Model, width, bodyHeight int) {
	t.SetWidth(width)
	target := max(1, bodyHeight)
	t.SetHeight(max(1, target-1))
	for range 2 {
		diff := target - lipgloss.Height(t.View())
		if diff == 0 {
			return
		}
		t.SetHeight(max(1, t.Height()+diff))
	}
}

func (m *Model) refreshReport() {
	if m.load == nil {
		m.errMsg = "no stats source configured"
		return
	}
	report, err := m.load(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report

	cols, rows := historyTableData(report)
	m.history.SetColumns(cols)
	m.history.SetRows(rows)
	cols, rows = leaderboardTableData(report)
	m.leaderboard.SetColumns(cols)
	m.leaderboard.SetRows(rows)
	for i, e := range report.Leaderboard {
		if e.UserID == report.UserID {
			m.leaderboard.SetCursor(i)
			break
		}
	}
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
	m.viewports[tabBreakdown].SetContent(renderBreakdown(m.report))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	period := m.report.Period.Label()
	if m.cfg.Since != nil {
		period = "since " + m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	search := m.cfg.Search
	if search == "" {
		search = "-"
	}
	summary := fmt.Sprintf("Settings: %s  last=%s  window=%d  search=%s", period, last, m.cfg.CurveWindow, search)
	if m.report.LeaderboardSource == results.SourceFallback && m.activeTab == tabLeaderboard {
		summary += "  (device results)"
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down  Period: p/P  Window: -/=  Reload: r  Settings: /  Quit: q"
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	switch {
	case m.errMsg != "":
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	case m.notice != "":
		return m.renderHelp() + "\n" + cardTitleStyle.Render(m.notice)
	}
	return m.renderHelp()
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return m.renderFilterForm()
	}
	switch m.activeTab {
	case tabHistory:
		if len(m.report.History) == 0 {
			return fmt.Sprintf("No attempts in %s.", strings.ToLower(m.report.Period.Label()))
		}
		return tableMutedStyle.Render(m.history.View())
	case tabLeaderboard:
		if len(m.report.Leaderboard) == 0 {
			return "No users found."
		}
		return tableMutedStyle.Render(m.leaderboard.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Period (week/month/year/all): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
		newFilterInput("Search user: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[fieldPeriod].SetValue(m.cfg.Period)
	m.filterInputs[fieldSince].SetValue("")
	if m.cfg.Since != nil {
		m.filterInputs[fieldSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	}
	m.filterInputs[fieldLast].SetValue("")
	if m.cfg.Last > 0 {
		m.filterInputs[fieldLast].SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.filterInputs[fieldWindow].SetValue(strconv.Itoa(m.cfg.CurveWindow))
	m.filterInputs[fieldSearch].SetValue(m.cfg.Search)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx%count + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	period, err := stats.ParsePeriod(m.filterInputs[fieldPeriod].Value())
	if err != nil {
		return err
	}

	var since *time.Time
	if v := strings.TrimSpace(m.filterInputs[fieldSince].Value()); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	last := 0
	if v := strings.TrimSpace(m.filterInputs[fieldLast].Value()); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	window := m.cfg.CurveWindow
	if v := strings.TrimSpace(m.filterInputs[fieldWindow].Value()); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg.Period = string(period)
	m.cfg.Since = since
	m.cfg.Last = last
	m.cfg.CurveWindow = window
	m.cfg.Search = strings.TrimSpace(m.filterInputs[fieldSearch].Value())
	return nil
}
