package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/verte-zerg/verbavox/internal/catalog"
	"github.com/verte-zerg/verbavox/internal/config"
	"github.com/verte-zerg/verbavox/internal/events"
	"github.com/verte-zerg/verbavox/internal/logger"
	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/observe"
	"github.com/verte-zerg/verbavox/internal/primary"
	"github.com/verte-zerg/verbavox/internal/results"
	"github.com/verte-zerg/verbavox/internal/store"
)

// app holds the wired dependencies shared by every command.
type app struct {
	env  config.Env
	file config.FileConfig
	log  *zap.Logger

	meter   *observe.Provider
	metrics *observe.Metrics
	bus     *events.Bus
	primary *primary.Store
	pool    *pgxpool.Pool
	local   *store.Store
	results *results.Adapter
	catalog *catalog.Catalog
}

type appOptions struct {
	noLocal bool
	// requirePrimary fails instead of degrading when DATABASE_URL is unset.
	requirePrimary bool
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	env, err := config.LoadEnv(config.DefaultEnvPath(), ".env")
	if err != nil {
		return nil, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(env.Production(), config.DefaultLogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	meter, err := observe.InitProvider()
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	a := &app{
		env:     env,
		file:    fileCfg,
		log:     log,
		meter:   meter,
		metrics: meter.Metrics(),
		bus:     events.NewBus(),
	}

	if env.DatabaseURL != "" {
		maxConns := env.MaxConns
		if fileCfg.Store.MaxConns != nil {
			maxConns = *fileCfg.Store.MaxConns
		}
		a.primary, a.pool, err = primary.Open(ctx, env.DatabaseURL, primary.PoolConfig{
			MaxConns:        int32(maxConns),
			MaxConnLifetime: env.MaxConnLifetime,
		})
		if err != nil {
			if opts.requirePrimary {
				a.Close()
				return nil, err
			}
			log.Warn("primary store unavailable, using device storage", zap.Error(err))
		}
	} else if opts.requirePrimary {
		a.Close()
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	var kv store.KV
	if opts.noLocal {
		kv = store.NewMemory()
	} else {
		path := config.DefaultDBPath()
		if fileCfg.Store.Path != nil && strings.TrimSpace(*fileCfg.Store.Path) != "" {
			path = *fileCfg.Store.Path
		}
		a.local, err = store.Open(path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		kv = a.local
	}

	a.results = results.New(kv, a.resultOptions()...)

	var src catalog.Source
	if a.primary != nil {
		src = a.primary
	}
	catalogPath := config.DefaultCatalogPath()
	if fileCfg.Practice.Catalog != nil && strings.TrimSpace(*fileCfg.Practice.Catalog) != "" {
		catalogPath = *fileCfg.Practice.Catalog
	}
	a.catalog, err = catalog.Load(ctx, catalogPath, src, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load exercises: %w", err)
	}
	return a, nil
}

func (a *app) resultOptions() []results.Option {
	opts := []results.Option{
		results.WithLogger(a.log),
		results.WithMetrics(a.metrics),
	}
	if a.primary != nil {
		opts = append(opts, results.WithPrimary(a.primary))
	}
	sc := a.file.Store
	if sc.Namespace != nil {
		opts = append(opts, results.WithNamespace(*sc.Namespace))
	}
	if sc.UserCap != nil || sc.GlobalCap != nil {
		userCap, globalCap := results.DefaultUserCap, results.DefaultGlobalCap
		if sc.UserCap != nil {
			userCap = *sc.UserCap
		}
		if sc.GlobalCap != nil {
			globalCap = *sc.GlobalCap
		}
		opts = append(opts, results.WithCaps(userCap, globalCap))
	}
	if sc.HistoryLimit != nil {
		opts = append(opts, results.WithHistoryLimit(*sc.HistoryLimit))
	}
	return opts
}

// userID resolves the identity: flag, then config file, then environment.
func (a *app) userID(flag string) string {
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	if a.file.Practice.User != nil && strings.TrimSpace(*a.file.Practice.User) != "" {
		return strings.TrimSpace(*a.file.Practice.User)
	}
	if a.env.User != "" {
		return a.env.User
	}
	return model.AnonymousUser
}

func (a *app) exercises(context.Context) ([]model.Exercise, error) {
	return a.catalog.All(), nil
}

// listen forwards primary inserts to the bus until ctx is done.
func (a *app) listen(ctx context.Context) {
	if a.pool == nil {
		return
	}
	go func() {
		err := primary.Listen(ctx, a.pool, func(ev events.Completed) { a.bus.Publish(ev) })
		if err != nil {
			a.log.Warn("result notifications stopped", zap.Error(err))
		}
	}()
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.local != nil {
		if err := a.local.Close(); err != nil {
			logErrf("failed to close db: %v\n", err)
		}
	}
	if a.meter != nil {
		if err := a.meter.Shutdown(context.Background(), a.log); err != nil {
			logErrf("failed to flush metrics: %v\n", err)
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}
