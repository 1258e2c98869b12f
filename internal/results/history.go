package results

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/primary"
)

// History returns the newest attempts of userID and where they came from.
// The primary store is preferred; soft failures or an empty primary history
// fall back to the device lists. Device read errors are returned only when
// nothing could be loaded.
func (a *Adapter) History(ctx context.Context, userID string) ([]model.AttemptResult, Source, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = model.AnonymousUser
	}

	if a.primary != nil && userID != model.AnonymousUser {
		rows, err := a.primary.ListAttempts(ctx, userID, nil, a.limit)
		switch {
		case err != nil:
			class := primary.Classify(err)
			a.metrics.RecordPrimaryError(ctx, class.String())
			a.logPrimary("list attempts", class, err)
		case len(rows) > 0:
			return rows, SourcePrimary, nil
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	global, gErr := a.readList(ctx, a.GlobalKey())
	rows := make([]model.AttemptResult, 0, len(global))
	for _, r := range global {
		if r.UserID == userID || r.UserID == model.AnonymousUser {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		own, err := a.readList(ctx, a.UserKey(userID))
		if err != nil {
			if gErr != nil {
				return nil, SourceNone, err
			}
			a.log.Warn("user list unreadable", zap.Error(err))
		}
		rows = own
	}
	if len(rows) == 0 {
		return nil, SourceNone, gErr
	}
	if len(rows) > a.limit {
		rows = rows[:a.limit]
	}
	return rows, SourceFallback, nil
}

// AllAttempts merges every device list into one newest-first slice. Per-user
// lists are included when the store can enumerate keys, so attempts evicted
// from the cross-user list are still counted.
func (a *Adapter) AllAttempts(ctx context.Context) ([]model.AttemptResult, error) {
	if a.kv == nil {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	global, err := a.readList(ctx, a.GlobalKey())
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(global))
	out := make([]model.AttemptResult, 0, len(global))
	add := func(list []model.AttemptResult) {
		for _, r := range list {
			key := attemptKey(r)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	add(global)

	if lister, ok := a.kv.(KeyLister); ok {
		keys, err := lister.Keys(ctx, a.namespace+"_results_")
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			list, err := a.readList(ctx, key)
			if err != nil {
				a.log.Warn("skipping unreadable list", zap.String("key", key), zap.Error(err))
				continue
			}
			add(list)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

// attemptKey identifies an attempt across lists. Records written without an
// id fall back to user, exercise and completion time.
func attemptKey(r model.AttemptResult) string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return "at:" + r.UserID + "\x00" + r.ExerciseID + "\x00" + r.CompletedAt.UTC().Format(time.RFC3339Nano)
}

// LeaderboardRows aggregates attempts per user since the given time. A nil
// since covers all time.
func (a *Adapter) LeaderboardRows(ctx context.Context, since *time.Time) ([]model.LeaderboardRow, Source, error) {
	if a.primary != nil {
		rows, err := a.primary.Leaderboard(ctx, since)
		switch {
		case err != nil:
			class := primary.Classify(err)
			a.metrics.RecordPrimaryError(ctx, class.String())
			a.logPrimary("leaderboard", class, err)
		case len(rows) > 0:
			return rows, SourcePrimary, nil
		}
	}

	all, err := a.AllAttempts(ctx)
	if err != nil {
		return nil, SourceNone, err
	}
	rows := Aggregate(all, since)
	if len(rows) == 0 {
		return nil, SourceNone, nil
	}
	return rows, SourceFallback, nil
}

// Aggregate groups attempts by user into leaderboard rows.
func Aggregate(attempts []model.AttemptResult, since *time.Time) []model.LeaderboardRow {
	type acc struct {
		n     int
		total int
	}
	byUser := map[string]*acc{}
	var order []string
	for _, r := range attempts {
		if since != nil && r.CompletedAt.Before(*since) {
			continue
		}
		a, ok := byUser[r.UserID]
		if !ok {
			a = &acc{}
			byUser[r.UserID] = a
			order = append(order, r.UserID)
		}
		a.n++
		a.total += r.Accuracy
	}
	out := make([]model.LeaderboardRow, 0, len(order))
	for _, id := range order {
		a := byUser[id]
		out = append(out, model.LeaderboardRow{
			UserID:    id,
			Username:  id,
			Exercises: a.n,
			Accuracy:  float64(a.total) / float64(a.n),
		})
	}
	return out
}
