package results

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/store"
)

func TestHistoryPrefersPrimary(t *testing.T) {
	rows := []model.AttemptResult{{ID: "p1", UserID: "u1", ExerciseID: "ex", Accuracy: 90}}
	a := New(store.NewMemory(), WithPrimary(&fakePrimary{listRows: rows}))

	got, src, err := a.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, src)
	assert.Equal(t, rows, got)
}

func TestHistoryFallsBackOnPrimaryError(t *testing.T) {
	kv := store.NewMemory()
	a := New(kv, WithPrimary(&fakePrimary{listErr: errors.New(`relation "exercise_results" does not exist`)}))
	a.Save(context.Background(), attempt("u1", 60))
	a.Save(context.Background(), attempt("u2", 70))
	a.Save(context.Background(), attempt("", 80))

	got, src, err := a.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	require.Len(t, got, 2)
	assert.Equal(t, model.AnonymousUser, got[0].UserID)
	assert.Equal(t, "u1", got[1].UserID)
}

func TestHistoryUsesUserListWhenGlobalEmpty(t *testing.T) {
	kv := store.NewMemory()
	a := New(kv)
	a.Save(context.Background(), attempt("u1", 60))
	require.NoError(t, kv.Set(context.Background(), a.GlobalKey(), []byte("[]")))

	got, src, err := a.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	assert.Len(t, got, 1)
}

func TestHistoryEmpty(t *testing.T) {
	got, src, err := New(store.NewMemory()).History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, SourceNone, src)
	assert.Empty(t, got)
}

func TestHistoryRespectsLimit(t *testing.T) {
	a := New(store.NewMemory(), WithHistoryLimit(3))
	for i := 0; i < 6; i++ {
		a.Save(context.Background(), attempt("u1", i))
	}
	got, _, err := a.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestAllAttemptsMergesUserLists(t *testing.T) {
	kv := store.NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	a := New(kv, WithCaps(10, 2), WithClock(func() time.Time { clock = clock.Add(time.Hour); return clock }))
	for _, u := range []string{"u1", "u2", "u3", "u1"} {
		a.Save(context.Background(), attempt(u, 50))
	}

	all, err := a.AllAttempts(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 4, "attempts evicted from the global list are recovered from user lists")
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CompletedAt.After(all[i-1].CompletedAt))
	}
}

func TestAllAttemptsDedupsRecordsWithoutID(t *testing.T) {
	kv := store.NewMemory()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	legacy := []model.AttemptResult{
		{UserID: "u1", ExerciseID: "1", Accuracy: 80, TotalWords: 5, Mistakes: 1, CompletedAt: at},
		{UserID: "u1", ExerciseID: "2", Accuracy: 60, TotalWords: 5, Mistakes: 2, CompletedAt: at.Add(time.Hour)},
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), "verbavox_results", data))
	require.NoError(t, kv.Set(context.Background(), "verbavox_results_u1", data))

	all, err := New(kv).AllAttempts(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2", all[0].ExerciseID)
	assert.Equal(t, "1", all[1].ExerciseID)
}

func TestLeaderboardRowsFallback(t *testing.T) {
	kv := store.NewMemory()
	a := New(kv, WithPrimary(&fakePrimary{boardErr: errors.New("permission denied for table exercise_results")}))
	a.Save(context.Background(), attempt("u1", 100))
	a.Save(context.Background(), attempt("u1", 80))
	a.Save(context.Background(), attempt("u2", 50))

	rows, src, err := a.LeaderboardRows(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	byUser := map[string]model.LeaderboardRow{}
	for _, r := range rows {
		byUser[r.UserID] = r
	}
	assert.Equal(t, 2, byUser["u1"].Exercises)
	assert.InDelta(t, 90.0, byUser["u1"].Accuracy, 0.001)
	assert.Equal(t, 1, byUser["u2"].Exercises)
}

func TestAggregateSince(t *testing.T) {
	since := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := Aggregate([]model.AttemptResult{
		{UserID: "u1", Accuracy: 100, CompletedAt: since.Add(time.Hour)},
		{UserID: "u1", Accuracy: 0, CompletedAt: since.Add(-time.Hour)},
	}, &since)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Exercises)
	assert.InDelta(t, 100.0, rows[0].Accuracy, 0.001)
}
