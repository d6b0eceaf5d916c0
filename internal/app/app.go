package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vk/trimgrid/internal/config"
	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/vk/trimgrid/internal/job"
	"github.com/vk/trimgrid/internal/procrun"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context

	config *Config
	global *config.Global
	layout job.Layout
	runID  string
	runner procrun.Runner

	graph      *job.Graph
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It configures an
// isolated logger and loads the global configuration, with CLI overrides
// applied on top.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	global, err := config.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Workers > 0 {
		global.Concurrency = cfg.Workers
	}
	if cfg.MaxThreads >= 0 {
		global.MaxThreads = cfg.MaxThreads
	}
	if cfg.RunSuffix != "" {
		global.RunSuffix = cfg.RunSuffix
	}
	if err := global.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Debug("Configuration resolved.", "workers", global.Concurrency, "max_threads", global.MaxThreads)

	return &App{
		outW:   outW,
		logger: logger,
		ctx:    ctx,
		config: cfg,
		global: global,
		layout: job.Layout{OutDir: cfg.OutDir},
		runID:  runID,
		runner: procrun.NewExec(),
	}, nil
}

// RunID returns the unique id of this run.
func (a *App) RunID() string { return a.runID }

// Global returns the effective global configuration.
func (a *App) Global() *config.Global { return a.global }

// Graph returns the job graph once Run has built it.
func (a *App) Graph() *job.Graph { return a.graph }
