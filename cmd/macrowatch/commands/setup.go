package commands

import (
	"context"
	"fmt"

	"github.com/wonny/macrowatch/internal/catalog"
	"github.com/wonny/macrowatch/internal/export"
	"github.com/wonny/macrowatch/internal/external/bls"
	"github.com/wonny/macrowatch/internal/external/fred"
	"github.com/wonny/macrowatch/internal/external/openai"
	"github.com/wonny/macrowatch/internal/history"
	"github.com/wonny/macrowatch/internal/pipeline"
	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/database"
	"github.com/wonny/macrowatch/pkg/logger"
	"github.com/wonny/macrowatch/pkg/redis"
)

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	catalog *catalog.Catalog
	runner  *pipeline.Runner

	cleanup []func()
}

// Close releases held connections.
func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

// loadEnv loads app config and the logger, honoring global flags.
func loadEnv() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// setup bootstraps the full pipeline: config, catalog, provider
// clients, optional cache and archive, exporter and runner.
func setup(ctx context.Context) (*app, error) {
	cfg, log, err := loadEnv()
	if err != nil {
		return nil, err
	}

	cat, _, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	a := &app{cfg: cfg, logger: log, catalog: cat}

	fetchers := make(map[catalog.SourceKind]pipeline.Fetcher)
	for _, src := range cat.Sources() {
		switch src {
		case catalog.SourceFRED:
			if cfg.FRED.APIKey == "" {
				return nil, fmt.Errorf("catalog uses FRED but FRED_API_KEY is not set")
			}
			fetchers[src] = fred.New(cfg, log)
		case catalog.SourceBLS:
			// BLS needs enough years to cover the level window plus the
			// 12-month change base.
			lookback := (cat.Window.Months+12)/12 + 1
			fetchers[src] = bls.New(cfg, log, lookback)
		}
	}

	opts := pipeline.Options{
		Catalog:  cat,
		Fetchers: fetchers,
		Exporter: export.New(cfg.OutputDir, log),
	}

	if summarizer := openai.New(cfg, log); summarizer.Enabled() {
		opts.Summarizer = summarizer
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(cfg)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, caching disabled")
		} else {
			opts.Cache = redis.NewCache(client, "macrowatch")
			a.cleanup = append(a.cleanup, func() { client.Close() })
		}
	}

	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			log.WithError(err).Warn("database unavailable, run archive disabled")
		} else {
			archive, err := history.New(ctx, db, log)
			if err != nil {
				db.Close()
				return nil, err
			}
			opts.Archiver = archive
			a.cleanup = append(a.cleanup, db.Close)
		}
	}

	runner, err := pipeline.NewRunner(cfg, log, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = runner
	return a, nil
}
