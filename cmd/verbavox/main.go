// Package main provides the CLI entrypoint for verbavox.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/verbavox/internal/catalog"
	"github.com/verte-zerg/verbavox/internal/config"
	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/practice"
	"github.com/verte-zerg/verbavox/internal/scoring"
	"github.com/verte-zerg/verbavox/internal/stats"
	"github.com/verte-zerg/verbavox/internal/statsui"
	"github.com/verte-zerg/verbavox/internal/tui"
)

const (
	defaultCurveWindow = 5
	defaultPeriod      = "all"
)

var (
	practiceUser       string
	practiceExercise   string
	practiceDifficulty string
	practiceCategory   string
	practicePlayer     string
	noLocal            bool

	exercisesDifficulty string
	exercisesCategory   string
	exercisesQuery      string

	statsUser        string
	statsPeriod      string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsSearch      string
	statsPlain       bool

	leaderboardPeriod string
	leaderboardSearch string

	migrateSeed bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "verbavox",
		Short:         "Listening and transcription trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceUser, "user", "", "user id results are recorded for")
	rootCmd.Flags().StringVar(&practiceExercise, "exercise", "", "start with this exercise id")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", "", "only practice Simple, Medium or Advanced exercises")
	rootCmd.Flags().StringVar(&practiceCategory, "category", "", "only practice exercises in this category")
	rootCmd.Flags().StringVar(&practicePlayer, "player", "", "audio player command, e.g. \"mpv --no-video\"")
	rootCmd.PersistentFlags().BoolVar(&noLocal, "no-local", false, "keep device results in memory only")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newExercisesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newMigrateCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, appOptions{noLocal: noLocal})
	if err != nil {
		return err
	}
	defer a.Close()

	pc := a.file.Practice
	applyStringConfig(cmd, "exercise", &practiceExercise, pc.Exercise)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, pc.Difficulty)
	applyStringConfig(cmd, "category", &practiceCategory, pc.Category)
	applyStringConfig(cmd, "player", &practicePlayer, pc.AudioPlayer)

	cfg := model.Config{
		UserID:      a.userID(practiceUser),
		ExerciseID:  strings.TrimSpace(practiceExercise),
		Difficulty:  practiceDifficulty,
		Category:    practiceCategory,
		AudioPlayer: practicePlayer,
	}
	var lookup exerciseLookup
	if a.primary != nil {
		lookup = a.primary.GetExercise
	}
	exercises, err := selectExercises(ctx, a.catalog, cfg, lookup)
	if err != nil {
		return err
	}

	history, _, err := a.results.History(ctx, cfg.UserID)
	if err != nil {
		logErrf("failed to load history: %v\n", err)
	}

	completed, unsubscribe := a.bus.Subscribe(16)
	tally := make(chan sessionTally, 1)
	go func() {
		var t sessionTally
		for ev := range completed {
			t.add(ev.Accuracy)
		}
		tally <- t
	}()

	svc := practice.NewService(cfg.UserID, a.results, a.bus, a.metrics, a.log)
	program := tea.NewProgram(tui.NewModel(svc, exercises, cfg.AudioPlayer, history), tea.WithAltScreen())
	_, runErr := program.Run()
	unsubscribe()
	if t := <-tally; t.count > 0 {
		logErrf("Session: %d exercises saved, average accuracy %d%%\n", t.count, t.average())
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

type sessionTally struct {
	count int
	sum   int
}

func (t *sessionTally) add(accuracy int) {
	t.count++
	t.sum += accuracy
}

func (t sessionTally) average() int {
	return scoring.Percent(t.sum, t.count*100)
}

// exerciseLookup fetches one exercise the local catalog does not know.
type exerciseLookup func(ctx context.Context, id string) (model.Exercise, error)

// selectExercises filters the catalog and rotates the requested exercise to the
// front. An id missing from the catalog is looked up remotely when possible.
func selectExercises(ctx context.Context, c *catalog.Catalog, cfg model.Config, lookup exerciseLookup) ([]model.Exercise, error) {
	var filter catalog.Filter
	if cfg.Difficulty != "" {
		d, err := model.ParseDifficulty(cfg.Difficulty)
		if err != nil {
			return nil, err
		}
		filter.Difficulty = d
	}
	filter.Category = strings.TrimSpace(cfg.Category)
	exercises := c.Filter(filter)

	if cfg.ExerciseID != "" {
		if _, err := c.Find(cfg.ExerciseID); err != nil {
			if lookup == nil {
				return nil, fmt.Errorf("exercise %q: %w", cfg.ExerciseID, err)
			}
			ex, lerr := lookup(ctx, cfg.ExerciseID)
			if lerr != nil {
				return nil, fmt.Errorf("exercise %q: %w", cfg.ExerciseID, lerr)
			}
			return append([]model.Exercise{ex}, exercises...), nil
		}
		for i, ex := range exercises {
			if ex.ID == cfg.ExerciseID {
				out := make([]model.Exercise, 0, len(exercises))
				out = append(out, exercises[i:]...)
				return append(out, exercises[:i]...), nil
			}
		}
		return nil, fmt.Errorf("exercise %q does not match the difficulty or category filter", cfg.ExerciseID)
	}
	if len(exercises) == 0 {
		return nil, fmt.Errorf("no exercises match the difficulty or category filter")
	}
	return exercises, nil
}

func newExercisesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercises",
		Short: "List available exercises",
		Args:  cobra.NoArgs,
		RunE:  runExercisesCmd,
	}
	cmd.Flags().StringVar(&exercisesDifficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().StringVar(&exercisesCategory, "category", "", "category filter")
	cmd.Flags().StringVar(&exercisesQuery, "search", "", "match title, description or category")
	return cmd
}

func runExercisesCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(context.Background(), appOptions{noLocal: noLocal})
	if err != nil {
		return err
	}
	defer a.Close()

	filter := catalog.Filter{Category: exercisesCategory, Query: exercisesQuery}
	if exercisesDifficulty != "" {
		d, err := model.ParseDifficulty(exercisesDifficulty)
		if err != nil {
			return err
		}
		filter.Difficulty = d
	}
	list := a.catalog.Filter(filter)
	if len(list) == 0 {
		logErrln("No exercises found.")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, ex := range list {
		rows = append(rows, []string{ex.ID, ex.Title, string(ex.Difficulty), ex.Category, ex.Duration})
	}
	return writeTable(cmd, []string{"ID", "Title", "Difficulty", "Category", "Duration"}, rows)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show progress dashboard",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsUser, "user", "", "user id to report on")
	cmd.Flags().StringVar(&statsPeriod, "period", defaultPeriod, "week, month, year or all")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD), overrides --period")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N attempts")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsSearch, "search", "", "leaderboard user filter")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the dashboard")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := openApp(ctx, appOptions{noLocal: noLocal})
	if err != nil {
		return err
	}
	defer a.Close()

	sc := a.file.Stats
	applyStringConfig(cmd, "period", &statsPeriod, sc.Period)
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, sc.CurveWindow)
	applyIntConfig(cmd, "last", &statsLast, sc.Last)

	since, err := parseSince(statsSince)
	if err != nil {
		return err
	}
	if _, err := stats.ParsePeriod(statsPeriod); err != nil {
		return err
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg := model.StatsConfig{
		UserID:      a.userID(statsUser),
		Since:       since,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Period:      statsPeriod,
		Search:      statsSearch,
	}

	load := func(ctx context.Context, cfg model.StatsConfig) (stats.Report, error) {
		return stats.BuildReport(ctx, a.results, a.exercises, cfg, time.Now())
	}

	if statsPlain {
		report, err := load(ctx, cfg)
		if err != nil {
			return err
		}
		return writeReport(cmd, report, cfg.CurveWindow)
	}

	a.listen(ctx)
	updates, unsubscribe := a.bus.Subscribe(8)
	defer unsubscribe()

	program := tea.NewProgram(statsui.NewModel(load, cfg, updates), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func writeReport(cmd *cobra.Command, r stats.Report, window int) error {
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, r.Summary, r.Achievements); err != nil {
		return err
	}
	fmt.Fprintf(&buf, "\n%s\n", r.Period.Label())
	if err := stats.RenderHistory(&buf, r.History, r.Exercises, r.Now); err != nil {
		return err
	}
	if err := stats.RenderBreakdown(&buf, "Difficulty", r.ByDifficulty); err != nil {
		return err
	}
	if err := stats.RenderBreakdown(&buf, "Category", r.ByCategory); err != nil {
		return err
	}
	if len(r.History) > 0 {
		if err := stats.RenderCurves(&buf, r.History, window); err != nil {
			return err
		}
	}
	fmt.Fprintln(&buf)
	if err := stats.RenderLeaderboard(&buf, r.Leaderboard, r.UserID); err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&leaderboardPeriod, "period", "week", "week, month, year or all")
	cmd.Flags().StringVar(&leaderboardSearch, "search", "", "filter users by name")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	period, err := stats.ParsePeriod(leaderboardPeriod)
	if err != nil {
		return err
	}
	a, err := openApp(ctx, appOptions{noLocal: noLocal})
	if err != nil {
		return err
	}
	defer a.Close()

	rows, src, err := a.results.LeaderboardRows(ctx, period.Since(time.Now()))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s (%s results)\n", period.Label(), src)
	if err := stats.RenderLeaderboard(&buf, stats.Rank(rows, leaderboardSearch), a.userID("")); err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and seed exercises",
		Args:  cobra.NoArgs,
		RunE:  runMigrateCmd,
	}
	cmd.Flags().BoolVar(&migrateSeed, "seed", true, "upsert the built-in and local exercises")
	return cmd
}

func runMigrateCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, appOptions{noLocal: true, requirePrimary: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.primary.Migrate(ctx); err != nil {
		return err
	}
	logErrln("Schema is up to date.")
	if !migrateSeed {
		return nil
	}
	n, err := a.primary.UpsertExercises(ctx, a.catalog.All())
	if err != nil {
		return err
	}
	logErrf("Seeded %d exercises.\n", n)
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := config.EnsureFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func writeTable(cmd *cobra.Command, headers []string, rows [][]string) error {
	for _, line := range stats.FormatTable(headers, rows) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
