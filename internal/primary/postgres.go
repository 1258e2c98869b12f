// Package primary is the PostgreSQL-backed primary store for exercises and
// attempt results.
package primary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verte-zerg/verbavox/internal/model"
)

// ErrNotConfigured is returned by a nil *Store.
var ErrNotConfigured = errors.New("primary: store not configured")

// Schema is the SQL DDL for the primary store. Execute it via [Store.Migrate].
const Schema = `
CREATE TABLE IF NOT EXISTS exercises (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    difficulty  TEXT NOT NULL,
    category    TEXT NOT NULL DEFAULT '',
    duration    TEXT NOT NULL DEFAULT '',
    text        TEXT NOT NULL,
    audio_url   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS exercise_results (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    exercise_id  TEXT NOT NULL,
    user_text    TEXT NOT NULL,
    accuracy     INTEGER NOT NULL CHECK (accuracy BETWEEN 0 AND 100),
    mistakes     INTEGER NOT NULL CHECK (mistakes >= 0),
    total_words  INTEGER NOT NULL DEFAULT 0,
    completed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_exercise_results_user ON exercise_results(user_id, completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_exercise_results_completed ON exercise_results(completed_at);
CREATE OR REPLACE FUNCTION notify_exercise_completed() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('exercise_completed', json_build_object(
        'exercise_id', NEW.exercise_id,
        'user_id', NEW.user_id,
        'accuracy', NEW.accuracy)::text);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS exercise_results_notify ON exercise_results;
CREATE TRIGGER exercise_results_notify AFTER INSERT ON exercise_results
    FOR EACH ROW EXECUTE FUNCTION notify_exercise_completed();
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Store reads and writes exercises and attempts in PostgreSQL.
type Store struct {
	db DB
}

// New wraps an existing connection or pool.
func New(db DB) *Store {
	return &Store{db: db}
}

// Open connects a pool to dsn.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, *pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("primary: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("primary: new pool: %w", err)
	}
	return New(pool), pool, nil
}

// Migrate executes [Schema].
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil {
		return ErrNotConfigured
	}
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("primary: migrate: %w", err)
	}
	return nil
}

// InsertAttempt appends one attempt to exercise_results.
func (s *Store) InsertAttempt(ctx context.Context, r model.AttemptResult) error {
	if s == nil {
		return ErrNotConfigured
	}
	const query = `
		INSERT INTO exercise_results (id, user_id, exercise_id, user_text, accuracy, mistakes, total_words, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.Exec(ctx, query,
		r.ID, r.UserID, r.ExerciseID, r.UserText, r.Accuracy, r.Mistakes, r.TotalWords, r.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("primary: insert attempt: %w", err)
	}
	return nil
}

// ListAttempts returns a user's attempts newest first. A zero limit means no limit.
func (s *Store) ListAttempts(ctx context.Context, userID string, since *time.Time, limit int) ([]model.AttemptResult, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	clauses := []string{"user_id = $1"}
	args := []any{userID}
	if since != nil {
		args = append(args, since.UTC())
		clauses = append(clauses, fmt.Sprintf("completed_at >= $%d", len(args)))
	}
	query := fmt.Sprintf(`
		SELECT id, user_id, exercise_id, user_text, accuracy, mistakes, total_words, completed_at
		FROM exercise_results
		WHERE %s
		ORDER BY completed_at DESC`, strings.Join(clauses, " AND "))
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("primary: list attempts: %w", err)
	}
	defer rows.Close()

	var out []model.AttemptResult
	for rows.Next() {
		var r model.AttemptResult
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.UserText, &r.Accuracy, &r.Mistakes, &r.TotalWords, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("primary: scan attempt: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("primary: list attempts: %w", err)
	}
	return out, nil
}

// Leaderboard aggregates attempt counts and mean accuracy per user since the
// given time. A nil since covers all time.
func (s *Store) Leaderboard(ctx context.Context, since *time.Time) ([]model.LeaderboardRow, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	query := `
		SELECT user_id, COUNT(*)::int, AVG(accuracy)::float8
		FROM exercise_results`
	var args []any
	if since != nil {
		query += " WHERE completed_at >= $1"
		args = append(args, since.UTC())
	}
	query += " GROUP BY user_id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("primary: leaderboard: %w", err)
	}
	defer rows.Close()

	var out []model.LeaderboardRow
	for rows.Next() {
		var row model.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Exercises, &row.Accuracy); err != nil {
			return nil, fmt.Errorf("primary: scan leaderboard: %w", err)
		}
		row.Username = row.UserID
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("primary: leaderboard: %w", err)
	}
	return out, nil
}
