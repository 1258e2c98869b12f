// Package results persists attempt results to the primary store when it is
// reachable and always mirrors them into the per-device fallback store.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/observe"
	"github.com/verte-zerg/verbavox/internal/primary"
	"github.com/verte-zerg/verbavox/internal/store"
)

const (
	DefaultNamespace    = "verbavox"
	DefaultUserCap      = 50
	DefaultGlobalCap    = 200
	DefaultHistoryLimit = 50
)

// Primary is the subset of the primary store used by the adapter.
type Primary interface {
	InsertAttempt(ctx context.Context, r model.AttemptResult) error
	ListAttempts(ctx context.Context, userID string, since *time.Time, limit int) ([]model.AttemptResult, error)
	Leaderboard(ctx context.Context, since *time.Time) ([]model.LeaderboardRow, error)
}

// KeyLister is implemented by fallback stores that can enumerate keys.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Adapter chooses between the primary and fallback stores.
type Adapter struct {
	primary   Primary
	kv        store.KV
	namespace string
	userCap   int
	globalCap int
	limit     int
	log       *zap.Logger
	metrics   *observe.Metrics
	now       func() time.Time

	// mu serialises read-modify-write of the fallback lists.
	mu sync.Mutex
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPrimary enables the primary store.
func WithPrimary(p Primary) Option {
	return func(a *Adapter) { a.primary = p }
}

// WithNamespace sets the fallback key prefix.
func WithNamespace(ns string) Option {
	return func(a *Adapter) {
		if ns = strings.TrimSpace(ns); ns != "" {
			a.namespace = ns
		}
	}
}

// WithCaps sets the per-user and cross-user list caps. Non-positive values keep the defaults.
func WithCaps(user, global int) Option {
	return func(a *Adapter) {
		if user > 0 {
			a.userCap = user
		}
		if global > 0 {
			a.globalCap = global
		}
	}
}

// WithHistoryLimit caps the rows returned by History.
func WithHistoryLimit(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.limit = n
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

func WithMetrics(m *observe.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// New builds an adapter over the fallback store kv.
func New(kv store.KV, opts ...Option) *Adapter {
	a := &Adapter{
		kv:        kv,
		namespace: DefaultNamespace,
		userCap:   DefaultUserCap,
		globalCap: DefaultGlobalCap,
		limit:     DefaultHistoryLimit,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UserKey is the fallback key of a user's own list.
func (a *Adapter) UserKey(userID string) string {
	if userID == "" {
		userID = model.AnonymousUser
	}
	return a.namespace + "_results_" + userID
}

// GlobalKey is the fallback key of the cross-user list.
func (a *Adapter) GlobalKey() string {
	return a.namespace + "_results"
}

// Save persists r and reports the outcome. It never returns an error and
// absorbs panics raised by either store.
func (a *Adapter) Save(ctx context.Context, r model.AttemptResult) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			a.log.Error("save panicked", zap.Any("panic", p))
			out.FallbackErr = fmt.Errorf("results: panic: %v", p)
		}
		a.metrics.RecordSave(ctx, string(out.Kind()))
	}()

	rec, err := r.Normalize(a.now())
	if err != nil {
		a.log.Warn("rejecting attempt", zap.Error(err))
		out.FallbackErr = err
		return out
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	out.Record = rec

	if a.primary != nil && rec.UserID != model.AnonymousUser {
		if err := a.insertPrimary(ctx, rec); err != nil {
			out.PrimaryErr = err
			out.PrimaryClass = primary.Classify(err)
			a.metrics.RecordPrimaryError(ctx, out.PrimaryClass.String())
			a.logPrimary("insert attempt", out.PrimaryClass, err)
		} else {
			out.SavedToPrimary = true
		}
	}

	if err := a.mirror(ctx, rec); err != nil {
		out.FallbackErr = err
		a.log.Error("device save failed", zap.String("exercise_id", rec.ExerciseID), zap.Error(err))
	} else {
		out.SavedToFallback = true
	}
	return out
}

// insertPrimary turns a panicking primary store into an ordinary error so the
// device write still happens.
func (a *Adapter) insertPrimary(ctx context.Context, rec model.AttemptResult) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("results: primary panic: %v", p)
		}
	}()
	return a.primary.InsertAttempt(ctx, rec)
}

func (a *Adapter) logPrimary(op string, class primary.ErrorClass, err error) {
	if class.Soft() {
		a.log.Debug("primary unavailable, using device store",
			zap.String("op", op), zap.String("class", class.String()), zap.Error(err))
		return
	}
	a.log.Error("primary store error", zap.String("op", op), zap.Error(err))
}

// mirror prepends rec to the user's list and the cross-user list. The user
// list decides success; a failed cross-user write is only logged.
func (a *Adapter) mirror(ctx context.Context, rec model.AttemptResult) error {
	if a.kv == nil {
		return errors.New("results: no device store")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.prepend(ctx, a.UserKey(rec.UserID), rec, a.userCap); err != nil {
		return err
	}
	if err := a.prepend(ctx, a.GlobalKey(), rec, a.globalCap); err != nil {
		a.log.Warn("cross-user list not updated", zap.Error(err))
	}
	return nil
}

func (a *Adapter) prepend(ctx context.Context, key string, rec model.AttemptResult, limit int) error {
	list, err := a.readList(ctx, key)
	if err != nil {
		// A corrupt list is replaced rather than blocking new saves.
		a.log.Warn("discarding unreadable list", zap.String("key", key), zap.Error(err))
		list = nil
	}
	list = append([]model.AttemptResult{rec}, list...)
	if len(list) > limit {
		list = list[:limit]
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("results: encode %s: %w", key, err)
	}
	if err := a.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("results: write %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) readList(ctx context.Context, key string) ([]model.AttemptResult, error) {
	data, ok, err := a.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("results: read %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var list []model.AttemptResult
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("results: decode %s: %w", key, err)
	}
	return list, nil
}
