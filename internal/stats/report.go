package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/results"
)

// Source provides attempt history and leaderboard aggregates.
type Source interface {
	History(ctx context.Context, userID string) ([]model.AttemptResult, results.Source, error)
	LeaderboardRows(ctx context.Context, since *time.Time) ([]model.LeaderboardRow, results.Source, error)
}

// ExerciseLoader lists the exercises used to label attempts.
type ExerciseLoader func(ctx context.Context) ([]model.Exercise, error)

// Report contains precomputed data for stats rendering.
type Report struct {
	UserID string
	Period Period
	Now    time.Time

	// History is the user's newest-first history within the period.
	History       []model.AttemptResult
	HistorySource results.Source
	// Summary and Achievements cover the full history regardless of period.
	Summary      model.Summary
	Achievements []Achievement

	ByDifficulty []BreakdownRow
	ByCategory   []BreakdownRow

	Leaderboard       []model.LeaderboardEntry
	LeaderboardSource results.Source

	Exercises map[string]model.Exercise
}

// BuildReport loads history, exercises and leaderboard rows concurrently and
// derives every dashboard figure from them.
func BuildReport(ctx context.Context, src Source, load ExerciseLoader, cfg model.StatsConfig, now time.Time) (Report, error) {
	period, err := ParsePeriod(cfg.Period)
	if err != nil {
		return Report{}, err
	}
	since := cfg.Since
	if since == nil {
		since = period.Since(now)
	}

	var (
		history   []model.AttemptResult
		histSrc   results.Source
		exercises []model.Exercise
		rows      []model.LeaderboardRow
		rowsSrc   results.Source
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, histSrc, err = src.History(gctx, cfg.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, rowsSrc, err = src.LeaderboardRows(gctx, since)
		return err
	})
	if load != nil {
		g.Go(func() error {
			var err error
			exercises, err = load(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	byID := make(map[string]model.Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}

	summary := Summarize(history, now)
	windowed := FilterSince(history, since)
	if cfg.Last > 0 && len(windowed) > cfg.Last {
		windowed = windowed[:cfg.Last]
	}
	byDiff, byCat := Breakdown(windowed, byID)

	return Report{
		UserID:            cfg.UserID,
		Period:            period,
		Now:               now,
		History:           windowed,
		HistorySource:     histSrc,
		Summary:           summary,
		Achievements:      Achievements(summary),
		ByDifficulty:      byDiff,
		ByCategory:        byCat,
		Leaderboard:       Rank(rows, cfg.Search),
		LeaderboardSource: rowsSrc,
		Exercises:         byID,
	}, nil
}
