package config

import (
	"time"

	"github.com/vk/trimgrid/internal/job"
	"github.com/vk/trimgrid/internal/manifest"
	"github.com/vk/trimgrid/internal/params"
	"github.com/vk/trimgrid/internal/tools"
)

// Global is the decoded global configuration.
type Global struct {
	Defaults params.Defaults

	TrimResources      job.Resources
	AggregateResources job.Resources

	// Concurrency is the number of jobs that may run at once.
	Concurrency int
	// MaxThreads caps the summed thread requests of running jobs; 0 disables.
	MaxThreads int

	TrimTool      string
	AggregateTool string

	RunSuffix string
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		Defaults:           params.BuiltinDefaults(),
		TrimResources:      job.Resources{Threads: 4, MemoryMB: 4096, TimeBudget: 4 * time.Hour},
		AggregateResources: job.Resources{Threads: 1, MemoryMB: 2048, TimeBudget: time.Hour},
		Concurrency:        4,
		TrimTool:           tools.DefaultTrimTool,
		AggregateTool:      tools.DefaultAggregateTool,
		RunSuffix:          manifest.DefaultRunSuffix,
	}
}
