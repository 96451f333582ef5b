// Package app wires the configured store, grade engine, sources and metrics
// into a pipeline orchestrator. Shared by cmd/api and cmd/ingest.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/albapepper/cruxlog/internal/classify"
	"github.com/albapepper/cruxlog/internal/config"
	"github.com/albapepper/cruxlog/internal/db"
	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/metrics"
	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
	"github.com/albapepper/cruxlog/internal/provider/eighta"
	"github.com/albapepper/cruxlog/internal/provider/mountainproject"
	"github.com/albapepper/cruxlog/internal/pyramid"
	"github.com/albapepper/cruxlog/internal/store"
)

// App holds the long-lived components of a process.
type App struct {
	Store        store.Store
	Grades       *grade.Engine
	Orchestrator *pipeline.Orchestrator
	Metrics      *metrics.SyncMetrics
}

// New opens the store selected by cfg and builds the pipeline. registry may
// be nil for a private registry with the Go and process collectors.
func New(ctx context.Context, cfg *config.Config, registry *prometheus.Registry, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	h := cfg.Heuristics
	engine, err := grade.NewEngine(grade.NewTable(),
		grade.WithCacheSize(h.GradeCacheSize),
		grade.WithChunkSize(h.GradeChunkSize),
		grade.WithCacheObserver(m.ObserveGradeCache))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build grade engine: %w", err)
	}

	mp := mountainproject.NewClient(cfg.MountainProjectURL, cfg.MountainProjectRPM, cfg.HTTPTimeout, logger)
	ea := eighta.NewGateway(eighta.Config{
		BaseURL:    cfg.EightAURL,
		ControlURL: cfg.EightAControlURL,
		Headless:   cfg.EightAHeadless,
		Timeout:    cfg.EightATimeout,
		PageSize:   cfg.EightAPageSize,
	}, logger)

	orch, err := pipeline.New(pipeline.Deps{
		Grades: engine,
		Classifier: classify.New(classify.Config{
			ShortMax:  h.ShortMax,
			MediumMax: h.MediumMax,
			LongMax:   h.LongMax,
		}),
		Pyramid: pyramid.New(h.TopGrades),
		Store:   st,
		Sources: map[provider.SourceType]pipeline.Adapter{
			provider.SourceMountainProject: mountainproject.Adapter(mp),
			provider.SourceEightA:          eighta.Adapter(ea),
		},
		FetchPool: pipeline.NewFetchPool(h.FetchWorkers),
		Recorder:  m,
	}, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{Store: st, Grades: engine, Orchestrator: orch, Metrics: m}, nil
}

// OpenStore returns the Postgres store when a database URL is configured and
// the embedded SQLite store otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.UsePostgres() {
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("Database connected", "backend", "postgres",
			"min_conns", cfg.DBPoolMinConns, "max_conns", cfg.DBPoolMaxConns)
		return store.NewPostgres(pool, logger), nil
	}

	st, err := store.NewSQLite(cfg.SQLitePath, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database opened", "backend", "sqlite", "path", cfg.SQLitePath)
	return st, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
