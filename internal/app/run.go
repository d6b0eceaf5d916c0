package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/vk/trimgrid/internal/executor"
	"github.com/vk/trimgrid/internal/job"
	"github.com/vk/trimgrid/internal/ledger"
	"github.com/vk/trimgrid/internal/manifest"
	"github.com/vk/trimgrid/internal/params"
)

// ErrRunFailed is returned by Run when at least one job did not succeed.
var ErrRunFailed = executor.ErrRunFailed

// Run executes one full run: load inputs, build the job graph, execute it and
// print the summary. With DryRun set it prints the plan instead of executing.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	samples, err := manifest.Load(ctx, a.config.ManifestPath, manifest.Options{RunSuffix: a.global.RunSuffix})
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	table := params.Load(ctx, a.config.ParamsPath)

	graph, err := job.Build(ctx, samples, table, a.global.Defaults, job.BuildOptions{
		Layout:             a.layout,
		TrimTool:           a.global.TrimTool,
		AggregateTool:      a.global.AggregateTool,
		TrimResources:      a.global.TrimResources,
		AggregateResources: a.global.AggregateResources,
	})
	if err != nil {
		return fmt.Errorf("failed to build job graph: %w", err)
	}
	a.graph = graph

	if a.config.DryRun {
		a.logger.Info("Dry run, nothing will be executed.")
		return a.writePlan(a.outW)
	}

	for _, dir := range a.layout.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	l, err := ledger.Open(a.config.StateDir)
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	if records, err := l.List(); err == nil {
		a.logger.Debug("Run ledger opened.", "path", a.config.StateDir, "records", len(records))
	}
	defer func() {
		if err := l.Close(); err != nil {
			a.logger.Warn("Closing run ledger failed.", "error", err)
		}
	}()

	if a.config.StatusPort > 0 {
		if err := a.startStatusServer(ctx, a.config.StatusPort); err != nil {
			return err
		}
		defer a.closeStatusServer()
	}

	a.logger.Info("🚀 Starting concurrent execution...", "jobs", graph.Len(), "workers", a.global.Concurrency)
	exec := executor.New(graph, a.runner, l, executor.Options{
		Workers:    a.global.Concurrency,
		MaxThreads: a.global.MaxThreads,
		Retries:    a.config.Retries,
		Force:      a.config.Force,
		RunID:      a.runID,
	})
	summary, runErr := exec.Run(ctx)
	a.logger.Info("🏁 Execution finished.", "status", summary.Status())

	if err := summary.Write(a.outW); err != nil {
		a.logger.Warn("Writing run summary failed.", "error", err)
	}
	if runErr != nil {
		if errors.Is(runErr, executor.ErrRunFailed) {
			return runErr
		}
		return fmt.Errorf("execution failed: %w", runErr)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
