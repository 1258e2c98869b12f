package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/primary"
	"github.com/verte-zerg/verbavox/internal/store"
)

type fakePrimary struct {
	insertErr   error
	inserted    []model.AttemptResult
	listRows    []model.AttemptResult
	listErr     error
	boardRows   []model.LeaderboardRow
	boardErr    error
	insertPanic bool
}

func (f *fakePrimary) InsertAttempt(_ context.Context, r model.AttemptResult) error {
	if f.insertPanic {
		panic("boom")
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, r)
	return nil
}

func (f *fakePrimary) ListAttempts(_ context.Context, _ string, _ *time.Time, _ int) ([]model.AttemptResult, error) {
	return f.listRows, f.listErr
}

func (f *fakePrimary) Leaderboard(_ context.Context, _ *time.Time) ([]model.LeaderboardRow, error) {
	return f.boardRows, f.boardErr
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("quota exceeded")
}

func (failingKV) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func attempt(user string, accuracy int) model.AttemptResult {
	return model.AttemptResult{
		UserID:     user,
		ExerciseID: "ex-1",
		UserText:   "hello world",
		Accuracy:   accuracy,
		Mistakes:   0,
		TotalWords: 2,
	}
}

func readList(t *testing.T, kv store.KV, key string) []model.AttemptResult {
	t.Helper()
	data, ok, err := kv.Get(context.Background(), key)
	require.NoError(t, err)
	if !ok {
		return nil
	}
	var list []model.AttemptResult
	require.NoError(t, json.Unmarshal(data, &list))
	return list
}

func TestSavePrimarySuccess(t *testing.T) {
	kv := store.NewMemory()
	p := &fakePrimary{}
	a := New(kv, WithPrimary(p), WithClock(func() time.Time { return fixedNow }))

	out := a.Save(context.Background(), attempt("u1", 100))

	assert.Equal(t, KindSavedToPrimary, out.Kind())
	assert.True(t, out.SavedToFallback)
	require.Len(t, p.inserted, 1)
	assert.NotEmpty(t, p.inserted[0].ID)
	assert.Equal(t, fixedNow, p.inserted[0].CompletedAt)
	assert.Len(t, readList(t, kv, "verbavox_results_u1"), 1)
	assert.Len(t, readList(t, kv, "verbavox_results"), 1)
}

func TestSaveRelationMissingFallsBack(t *testing.T) {
	kv := store.NewMemory()
	p := &fakePrimary{insertErr: fmt.Errorf("primary: insert attempt: %w",
		&pgconn.PgError{Code: "42P01", Message: `relation "exercise_results" does not exist`})}
	a := New(kv, WithPrimary(p))

	out := a.Save(context.Background(), attempt("u1", 80))

	assert.Equal(t, KindSavedToFallback, out.Kind())
	assert.Equal(t, primary.ClassSchemaMissing, out.PrimaryClass)
	assert.Error(t, out.PrimaryErr)
	assert.Len(t, readList(t, kv, "verbavox_results_u1"), 1)
}

func TestSaveUnknownPrimaryErrorStillFallsBack(t *testing.T) {
	kv := store.NewMemory()
	a := New(kv, WithPrimary(&fakePrimary{insertErr: errors.New("connection reset")}))

	out := a.Save(context.Background(), attempt("u1", 80))

	assert.Equal(t, KindSavedToFallback, out.Kind())
	assert.Equal(t, primary.ClassUnknown, out.PrimaryClass)
}

func TestSaveAnonymousSkipsPrimary(t *testing.T) {
	kv := store.NewMemory()
	p := &fakePrimary{}
	a := New(kv, WithPrimary(p))

	out := a.Save(context.Background(), attempt("", 50))

	assert.Equal(t, KindSavedToFallback, out.Kind())
	assert.Empty(t, p.inserted)
	assert.Equal(t, model.AnonymousUser, out.Record.UserID)
	assert.Len(t, readList(t, kv, "verbavox_results_anonymous"), 1)
}

func TestSaveBothFail(t *testing.T) {
	a := New(failingKV{}, WithPrimary(&fakePrimary{insertErr: errors.New("timeout")}))

	out := a.Save(context.Background(), attempt("u1", 50))

	assert.Equal(t, KindSaveFailed, out.Kind())
	assert.False(t, out.Saved())
	assert.Error(t, out.FallbackErr)
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	kv := store.NewMemory()
	p := &fakePrimary{}
	a := New(kv, WithPrimary(p))

	bad := attempt("u1", 120)
	out := a.Save(context.Background(), bad)

	assert.Equal(t, KindSaveFailed, out.Kind())
	assert.ErrorIs(t, out.FallbackErr, model.ErrInvalidCounts)
	assert.Empty(t, p.inserted)
	assert.Nil(t, readList(t, kv, "verbavox_results_u1"))
}

func TestSavePrimaryPanicFallsThroughToDevice(t *testing.T) {
	kv := store.NewMemory()
	a := New(kv, WithPrimary(&fakePrimary{insertPanic: true}))

	var out Outcome
	assert.NotPanics(t, func() { out = a.Save(context.Background(), attempt("u1", 50)) })
	assert.Equal(t, KindSavedToFallback, out.Kind())
	assert.Equal(t, primary.ClassUnknown, out.PrimaryClass)
	assert.Error(t, out.PrimaryErr)
	assert.Len(t, readList(t, kv, "verbavox_results_u1"), 1)
	assert.Len(t, readList(t, kv, "verbavox_results"), 1)
}

func TestSaveCapsLists(t *testing.T) {
	kv := store.NewMemory()
	a := New(kv, WithCaps(5, 8))

	for i := 0; i < 20; i++ {
		user := "u1"
		if i%2 == 1 {
			user = "u2"
		}
		r := attempt(user, i)
		r.ID = fmt.Sprintf("id-%02d", i)
		a.Save(context.Background(), r)

		assert.LessOrEqual(t, len(readList(t, kv, "verbavox_results_u1")), 5)
		assert.LessOrEqual(t, len(readList(t, kv, "verbavox_results")), 8)
	}

	global := readList(t, kv, "verbavox_results")
	require.Len(t, global, 8)
	assert.Equal(t, "id-19", global[0].ID, "newest first")
	assert.Equal(t, "id-12", global[7].ID, "oldest evicted from the tail")
}

func TestSaveReplacesCorruptList(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), "verbavox_results_u1", []byte("{not json")))
	a := New(kv)

	out := a.Save(context.Background(), attempt("u1", 70))

	assert.Equal(t, KindSavedToFallback, out.Kind())
	assert.Len(t, readList(t, kv, "verbavox_results_u1"), 1)
}

func TestNamespaceKeys(t *testing.T) {
	a := New(store.NewMemory(), WithNamespace("englishbyear"))
	assert.Equal(t, "englishbyear_results_bob", a.UserKey("bob"))
	assert.Equal(t, "englishbyear_results_anonymous", a.UserKey(""))
	assert.Equal(t, "englishbyear_results", a.GlobalKey())
}
