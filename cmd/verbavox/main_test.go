package main

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/verbavox/internal/catalog"
	"github.com/verte-zerg/verbavox/internal/model"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]model.Exercise{
		{ID: "1", Title: "Daily Routines", Difficulty: model.DifficultySimple, Category: "Daily Life", Text: "I wake up early."},
		{ID: "2", Title: "Travel Vocabulary", Difficulty: model.DifficultySimple, Category: "Travel", Text: "I'm planning a trip."},
		{ID: "3", Title: "News Headlines", Difficulty: model.DifficultyMedium, Category: "News", Text: "Markets rose today."},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func ids(exs []model.Exercise) string {
	out := ""
	for _, ex := range exs {
		out += ex.ID
	}
	return out
}

func TestSelectExercisesRotatesRequested(t *testing.T) {
	got, err := selectExercises(context.Background(), testCatalog(t), model.Config{ExerciseID: "2"}, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if ids(got) != "231" {
		t.Fatalf("order = %s, want 231", ids(got))
	}
}

func TestSelectExercisesFilters(t *testing.T) {
	got, err := selectExercises(context.Background(), testCatalog(t), model.Config{Difficulty: "simple", Category: "travel"}, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if ids(got) != "2" {
		t.Fatalf("ids = %s, want 2", ids(got))
	}
}

func TestSelectExercisesErrors(t *testing.T) {
	cases := []model.Config{
		{Difficulty: "expert"},
		{ExerciseID: "42"},
		{ExerciseID: "3", Difficulty: "Simple"},
		{Category: "Cooking"},
	}
	for _, cfg := range cases {
		if _, err := selectExercises(context.Background(), testCatalog(t), cfg, nil); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestSelectExercisesLooksUpUnknownID(t *testing.T) {
	lookup := func(_ context.Context, id string) (model.Exercise, error) {
		if id != "42" {
			return model.Exercise{}, errors.New("no rows")
		}
		return model.Exercise{ID: "42", Title: "Added Later", Difficulty: model.DifficultyAdvanced, Text: "New words."}, nil
	}
	got, err := selectExercises(context.Background(), testCatalog(t), model.Config{ExerciseID: "42"}, lookup)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if ids(got) != "42123" {
		t.Fatalf("order = %s, want 42123", ids(got))
	}
	if _, err := selectExercises(context.Background(), testCatalog(t), model.Config{ExerciseID: "7"}, lookup); err == nil {
		t.Fatalf("expected lookup error to surface")
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var player string
	var window int
	cmd.Flags().StringVar(&player, "player", "", "")
	cmd.Flags().IntVar(&window, "curve-window", 5, "")
	if err := cmd.Flags().Set("player", "mpv"); err != nil {
		t.Fatalf("set: %v", err)
	}

	fromFile := "afplay"
	fileWindow := 12
	applyStringConfig(cmd, "player", &player, &fromFile)
	applyIntConfig(cmd, "curve-window", &window, &fileWindow)
	if player != "mpv" {
		t.Fatalf("player = %q, flag should win", player)
	}
	if window != 12 {
		t.Fatalf("window = %d, config should apply", window)
	}
}

func TestSessionTallyAverage(t *testing.T) {
	var tally sessionTally
	for _, acc := range []int{80, 91, 100} {
		tally.add(acc)
	}
	if tally.average() != 90 {
		t.Fatalf("average = %d, want 90", tally.average())
	}
}

func TestParseSince(t *testing.T) {
	if since, err := parseSince(""); err != nil || since != nil {
		t.Fatalf("empty since = %v, %v", since, err)
	}
	if _, err := parseSince("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}
