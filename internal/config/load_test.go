package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trimgrid/internal/params"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trimgrid.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	g, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), g)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
defaults {
  leading_quality  = 5
  trailing_quality = 0
  sliding_window   = "5:20"
  min_length       = 50
  trim_poly_g      = true
}

resources {
  threads     = 8
  memory_mb   = 16000
  time_budget = "90m"
  concurrency = 2
  max_threads = 12
}

aggregate_resources {
  threads     = 2
  time_budget = 600
}

tools {
  trim      = "/opt/fastp/bin/fastp"
  aggregate = "multiqc-1.21"
}

manifest {
  run_suffix = "_1\\.fq$"
}
`)

	g, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, params.Defaults{
		LeadingQuality:  5,
		TrailingQuality: 0,
		Window:          params.Window{Size: 5, Quality: 20},
		MinLength:       50,
		TrimPolyG:       true,
	}, g.Defaults)
	assert.Equal(t, 8, g.TrimResources.Threads)
	assert.Equal(t, 16000, g.TrimResources.MemoryMB)
	assert.Equal(t, 90*time.Minute, g.TrimResources.TimeBudget)
	assert.Equal(t, 2, g.Concurrency)
	assert.Equal(t, 12, g.MaxThreads)

	assert.Equal(t, 2, g.AggregateResources.Threads)
	assert.Equal(t, 2048, g.AggregateResources.MemoryMB, "unset attributes keep built-in values")
	assert.Equal(t, 10*time.Minute, g.AggregateResources.TimeBudget)

	assert.Equal(t, "/opt/fastp/bin/fastp", g.TrimTool)
	assert.Equal(t, "multiqc-1.21", g.AggregateTool)
	assert.Equal(t, `_1\.fq$`, g.RunSuffix)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
resources {
  concurrency = 8
}
`)
	g, err := Load(context.Background(), path)
	require.NoError(t, err)

	want := Default()
	want.Concurrency = 8
	assert.Equal(t, want, g)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `defaults {`, "failed to parse"},
		{"unknown block", `pipeline {}`, "failed to decode"},
		{"bad window", `defaults { sliding_window = "4" }`, "sliding window"},
		{"bad duration", `resources { time_budget = "soon" }`, "time_budget"},
		{"fractional seconds", `resources { time_budget = 1.5 }`, "whole number"},
		{"zero concurrency", `resources { concurrency = 0 }`, "concurrency must be at least 1"},
		{"zero threads", `aggregate_resources { threads = 0 }`, "aggregate_resources: threads"},
		{"misplaced concurrency", `aggregate_resources { concurrency = 2 }`, "belong in the resources block"},
		{"bad suffix", `manifest { run_suffix = "(" }`, "run_suffix"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeConfig(t, tc.body))
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
