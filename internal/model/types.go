// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AnonymousUser is the user id recorded when no identity is configured.
const AnonymousUser = "anonymous"

// Difficulty grades an exercise.
type Difficulty string

const (
	DifficultySimple   Difficulty = "Simple"
	DifficultyMedium   Difficulty = "Medium"
	DifficultyAdvanced Difficulty = "Advanced"
)

// Difficulties lists the known difficulty levels in ascending order.
var Difficulties = []Difficulty{DifficultySimple, DifficultyMedium, DifficultyAdvanced}

// ParseDifficulty matches a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Exercise is a reference listening passage.
type Exercise struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Difficulty  Difficulty `yaml:"difficulty" json:"difficulty"`
	Category    string     `yaml:"category" json:"category"`
	Duration    string     `yaml:"duration" json:"duration"`
	Text        string     `yaml:"text" json:"text"`
	AudioURL    string     `yaml:"audio,omitempty" json:"audio_url,omitempty"`
}

// AttemptResult is the outcome of one transcription attempt.
type AttemptResult struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ExerciseID  string    `json:"exercise_id"`
	UserText    string    `json:"user_text"`
	Accuracy    int       `json:"accuracy"`
	Mistakes    int       `json:"mistakes"`
	TotalWords  int       `json:"total_words"`
	CompletedAt time.Time `json:"completed_at"`
}

var (
	ErrMissingExercise = errors.New("attempt has no exercise id")
	ErrInvalidCounts   = errors.New("attempt has invalid accuracy or word counts")
)

// Normalize fills defaults and rejects records that violate the attempt invariants.
func (r AttemptResult) Normalize(now time.Time) (AttemptResult, error) {
	r.ExerciseID = strings.TrimSpace(r.ExerciseID)
	if r.ExerciseID == "" {
		return r, ErrMissingExercise
	}
	if r.Accuracy < 0 || r.Accuracy > 100 || r.Mistakes < 0 || r.TotalWords < 0 || r.Mistakes > r.TotalWords {
		return r, ErrInvalidCounts
	}
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		r.UserID = AnonymousUser
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = now
	}
	return r, nil
}

// Config defines practice settings.
type Config struct {
	UserID      string
	ExerciseID  string
	Difficulty  string
	Category    string
	AudioPlayer string
}

// StoreConfig defines persistence settings.
type StoreConfig struct {
	DatabaseURL  string
	Namespace    string
	UserCap      int
	GlobalCap    int
	HistoryLimit int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	UserID      string
	Since       *time.Time
	Last        int
	CurveWindow int
	Period      string
	Search      string
}

// Summary holds the dashboard figures derived from a history.
type Summary struct {
	Exercises       int
	AverageAccuracy int
	Streak          int
	Level           int
	Score           int
	Recent          []AttemptResult
}

// LeaderboardRow is one user's aggregate over a period, before ranking.
type LeaderboardRow struct {
	UserID    string
	Username  string
	Exercises int
	Accuracy  float64
}

// LeaderboardEntry is a ranked leaderboard line.
type LeaderboardEntry struct {
	Rank      int
	UserID    string
	Username  string
	Score     int
	Exercises int
	Accuracy  int
}
