package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Practice.User != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[practice]
user = "mia"
difficulty = "Medium"

[store]
user-cap = 20

[stats]
period = "week"
curve-window = 5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Practice.User == nil || *cfg.Practice.User != "mia" {
		t.Fatalf("user not decoded: %+v", cfg.Practice)
	}
	if cfg.Practice.Difficulty == nil || *cfg.Practice.Difficulty != "Medium" {
		t.Fatalf("difficulty not decoded: %+v", cfg.Practice)
	}
	if cfg.Store.UserCap == nil || *cfg.Store.UserCap != 20 {
		t.Fatalf("user-cap not decoded: %+v", cfg.Store)
	}
	if cfg.Stats.Period == nil || *cfg.Stats.Period != "week" {
		t.Fatalf("period not decoded: %+v", cfg.Stats)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nlang = \"en\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "practice.lang") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestEnsureFileWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verbavox", "config.toml")
	if err := EnsureFile(path); err != nil {
		t.Fatalf("EnsureFile: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("default file should parse: %v", err)
	}
	if err := os.WriteFile(path, []byte("[stats]\nlast = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureFile(path); err != nil {
		t.Fatalf("EnsureFile existing: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[stats]\nlast = 3\n" {
		t.Fatalf("existing file overwritten: %q", data)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "verbavox", "config.toml") {
		t.Fatalf("config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "verbavox", "verbavox.db") {
		t.Fatalf("db path: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/data", "verbavox", "verbavox.log") {
		t.Fatalf("log path: %s", got)
	}
}

func TestLoadEnvDotenvAndOverride(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	content := "DATABASE_URL=postgres://localhost/verbavox\nVERBAVOX_USER=from-file\nVERBAVOX_DB_MAX_CONN_LIFETIME=5m\n"
	if err := os.WriteFile(dotenv, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VERBAVOX_USER", "from-env")
	t.Setenv("VERBAVOX_ENV", "Production")
	// t.Setenv restores these after the test; godotenv sets them directly.
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("VERBAVOX_DB_MAX_CONN_LIFETIME", "")
	os.Unsetenv("VERBAVOX_DB_MAX_CONN_LIFETIME")

	env, err := LoadEnv(dotenv, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.User != "from-env" {
		t.Fatalf("environment should win over dotenv, got %q", env.User)
	}
	if env.DatabaseURL != "postgres://localhost/verbavox" {
		t.Fatalf("database url: %q", env.DatabaseURL)
	}
	if !env.Production() {
		t.Fatalf("expected production env")
	}
	if env.MaxConnLifetime != 5*time.Minute {
		t.Fatalf("lifetime: %s", env.MaxConnLifetime)
	}
	if env.MaxConns != 4 {
		t.Fatalf("default max conns: %d", env.MaxConns)
	}
}
