package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Env holds settings that come from the process environment, optionally
// seeded from dotenv files.
type Env struct {
	Name            string        `mapstructure:"env"`
	User            string        `mapstructure:"user"`
	DatabaseURL     string        `mapstructure:"database_url"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// Production reports whether the production logging profile applies.
func (e Env) Production() bool {
	return strings.EqualFold(e.Name, "production")
}

// LoadEnv reads dotenv files, then the environment. Missing dotenv files are
// skipped; values already set in the environment win over dotenv values.
func LoadEnv(dotenvPaths ...string) (Env, error) {
	for _, p := range dotenvPaths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("error loading %s: %w", p, err)
		}
	}

	v := viper.New()
	v.SetDefault("env", "development")
	v.SetDefault("max_conns", 4)
	v.SetDefault("max_conn_lifetime", "30m")

	_ = v.BindEnv("env", "VERBAVOX_ENV")
	_ = v.BindEnv("user", "VERBAVOX_USER")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("max_conns", "VERBAVOX_DB_MAX_CONNS")
	_ = v.BindEnv("max_conn_lifetime", "VERBAVOX_DB_MAX_CONN_LIFETIME")

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return Env{}, fmt.Errorf("error unmarshalling env: %w", err)
	}
	env.User = strings.TrimSpace(env.User)
	env.DatabaseURL = strings.TrimSpace(env.DatabaseURL)
	return env, nil
}
