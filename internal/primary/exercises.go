package primary

import (
	"context"
	"fmt"

	"github.com/verte-zerg/verbavox/internal/model"
)

const exerciseColumns = `id, title, description, difficulty, category, duration, text, audio_url`

// ListExercises returns every exercise ordered by id.
func (s *Store) ListExercises(ctx context.Context) ([]model.Exercise, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("primary: list exercises: %w", err)
	}
	defer rows.Close()

	var out []model.Exercise
	for rows.Next() {
		var ex model.Exercise
		var difficulty string
		if err := rows.Scan(&ex.ID, &ex.Title, &ex.Description, &difficulty, &ex.Category, &ex.Duration, &ex.Text, &ex.AudioURL); err != nil {
			return nil, fmt.Errorf("primary: scan exercise: %w", err)
		}
		ex.Difficulty = model.Difficulty(difficulty)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("primary: list exercises: %w", err)
	}
	return out, nil
}

// GetExercise fetches one exercise. A missing row surfaces as pgx.ErrNoRows.
func (s *Store) GetExercise(ctx context.Context, id string) (model.Exercise, error) {
	if s == nil {
		return model.Exercise{}, ErrNotConfigured
	}
	var ex model.Exercise
	var difficulty string
	err := s.db.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id).
		Scan(&ex.ID, &ex.Title, &ex.Description, &difficulty, &ex.Category, &ex.Duration, &ex.Text, &ex.AudioURL)
	if err != nil {
		return model.Exercise{}, fmt.Errorf("primary: get exercise %q: %w", id, err)
	}
	ex.Difficulty = model.Difficulty(difficulty)
	return ex, nil
}

// UpsertExercises seeds or refreshes the exercise table and returns the number written.
func (s *Store) UpsertExercises(ctx context.Context, exercises []model.Exercise) (int, error) {
	if s == nil {
		return 0, ErrNotConfigured
	}
	const query = `
		INSERT INTO exercises (` + exerciseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			difficulty = EXCLUDED.difficulty,
			category = EXCLUDED.category,
			duration = EXCLUDED.duration,
			text = EXCLUDED.text,
			audio_url = EXCLUDED.audio_url`
	n := 0
	for _, ex := range exercises {
		if _, err := s.db.Exec(ctx, query,
			ex.ID, ex.Title, ex.Description, string(ex.Difficulty), ex.Category, ex.Duration, ex.Text, ex.AudioURL); err != nil {
			return n, fmt.Errorf("primary: upsert exercise %q: %w", ex.ID, err)
		}
		n++
	}
	return n, nil
}
