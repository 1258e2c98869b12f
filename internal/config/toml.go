// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Store    StoreConfig    `toml:"store"`
	Stats    StatsConfig    `toml:"stats"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	User        *string `toml:"user"`
	Exercise    *string `toml:"exercise"`
	Difficulty  *string `toml:"difficulty"`
	Category    *string `toml:"category"`
	AudioPlayer *string `toml:"audio-player"`
	Catalog     *string `toml:"catalog"`
}

// StoreConfig maps persistence settings. The database URL is read from the
// environment only.
type StoreConfig struct {
	Namespace    *string `toml:"namespace"`
	Path         *string `toml:"path"`
	UserCap      *int    `toml:"user-cap"`
	GlobalCap    *int    `toml:"global-cap"`
	HistoryLimit *int    `toml:"history-limit"`
	MaxConns     *int    `toml:"max-conns"`
}

// StatsConfig maps dashboard settings.
type StatsConfig struct {
	Period      *string `toml:"period"`
	CurveWindow *int    `toml:"curve-window"`
	Last        *int    `toml:"last"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DefaultFile is written by `verbavox config` when no file exists yet.
const DefaultFile = `# verbavox configuration

[practice]
# user = "anonymous"
# difficulty = "Simple"
# category = "Travel"
# audio-player = "mpv --no-video"
# catalog = "~/.config/verbavox/exercises.yaml"

[store]
# namespace = "verbavox"
# user-cap = 50
# global-cap = 200
# history-limit = 50

[stats]
# period = "month"
# curve-window = 10
`

// EnsureFile creates path with DefaultFile when it does not exist.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(parentDir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(DefaultFile), 0o644)
}
