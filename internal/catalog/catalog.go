// Package catalog loads the exercise catalog. Exercises come from an embedded
// seed, an optional user YAML file and, when reachable, the primary store.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/verbavox/internal/model"
)

// ErrNotFound is returned when no exercise has the requested id.
var ErrNotFound = errors.New("catalog: exercise not found")

//go:embed seed.yaml
var seedYAML []byte

// File is the top-level structure of a catalog YAML file.
//
//	exercises:
//	  - id: "2"
//	    title: Travel Vocabulary
//	    difficulty: Simple
//	    category: Travel
//	    text: I'm planning a trip to Japan next month.
type File struct {
	Exercises []model.Exercise `yaml:"exercises"`
}

// Source lists exercises from a remote store.
type Source interface {
	ListExercises(ctx context.Context) ([]model.Exercise, error)
}

// Catalog is an immutable, id-indexed exercise list.
type Catalog struct {
	exercises []model.Exercise
	byID      map[string]int
}

// New validates exercises and builds a catalog. Later entries replace
// earlier ones with the same id.
func New(exercises []model.Exercise) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(exercises))}
	for _, ex := range exercises {
		if err := validate(ex); err != nil {
			return nil, err
		}
		if i, ok := c.byID[ex.ID]; ok {
			c.exercises[i] = ex
			continue
		}
		c.byID[ex.ID] = len(c.exercises)
		c.exercises = append(c.exercises, ex)
	}
	return c, nil
}

func validate(ex model.Exercise) error {
	if strings.TrimSpace(ex.ID) == "" {
		return fmt.Errorf("catalog: exercise %q has no id", ex.Title)
	}
	if strings.TrimSpace(ex.Text) == "" {
		return fmt.Errorf("catalog: exercise %q has no text", ex.ID)
	}
	if _, err := model.ParseDifficulty(string(ex.Difficulty)); err != nil {
		return fmt.Errorf("catalog: exercise %q: %w", ex.ID, err)
	}
	return nil
}

// Seed returns the built-in exercises.
func Seed() ([]model.Exercise, error) {
	f, err := Decode(bytes.NewReader(seedYAML))
	if err != nil {
		return nil, fmt.Errorf("catalog: seed: %w", err)
	}
	return f.Exercises, nil
}

// Decode parses catalog YAML. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	for i := range f.Exercises {
		d, err := model.ParseDifficulty(string(f.Exercises[i].Difficulty))
		if err != nil {
			return nil, fmt.Errorf("catalog: exercise %q: %w", f.Exercises[i].ID, err)
		}
		f.Exercises[i].Difficulty = d
	}
	return &f, nil
}

// LoadFile reads a user catalog file. A missing file yields no exercises.
func LoadFile(path string) ([]model.Exercise, error) {
	if path == "" {
		return nil, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return f.Exercises, nil
}

// Load merges the seed, the user file at path and the exercises listed by
// src, in that order of precedence from lowest to highest. A failing src is
// logged and the local catalog is still returned.
func Load(ctx context.Context, path string, src Source, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	seed, err := Seed()
	if err != nil {
		return nil, err
	}
	user, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	all := append(seed, user...)
	if src != nil {
		remote, err := src.ListExercises(ctx)
		if err != nil {
			log.Warn("remote exercises unavailable, using local catalog", zap.Error(err))
		} else {
			all = append(all, remote...)
		}
	}
	return New(all)
}

// All returns the exercises in catalog order.
func (c *Catalog) All() []model.Exercise {
	out := make([]model.Exercise, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Len returns the number of exercises.
func (c *Catalog) Len() int {
	return len(c.exercises)
}

// Find returns the exercise with the given id.
func (c *Catalog) Find(id string) (model.Exercise, error) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return model.Exercise{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.exercises[i], nil
}

// Filter narrows the catalog listing.
type Filter struct {
	Difficulty model.Difficulty
	Category   string
	// Query matches title, description or category, case-insensitively.
	Query string
}

// Filter returns the exercises matching f in catalog order.
func (c *Catalog) Filter(f Filter) []model.Exercise {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []model.Exercise
	for _, ex := range c.exercises {
		if f.Difficulty != "" && ex.Difficulty != f.Difficulty {
			continue
		}
		if f.Category != "" && !strings.EqualFold(ex.Category, f.Category) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(ex.Title), q) &&
			!strings.Contains(strings.ToLower(ex.Description), q) &&
			!strings.Contains(strings.ToLower(ex.Category), q) {
			continue
		}
		out = append(out, ex)
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, ex := range c.exercises {
		if _, ok := seen[ex.Category]; ok || ex.Category == "" {
			continue
		}
		seen[ex.Category] = struct{}{}
		out = append(out, ex.Category)
	}
	sort.Strings(out)
	return out
}
