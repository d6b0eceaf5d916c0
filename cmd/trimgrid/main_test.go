package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trimgrid/internal/app"
	"github.com/vk/trimgrid/internal/cli"
	"github.com/vk/trimgrid/internal/testutil"
)

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	manifest := testutil.SampleSet(t, dir, "s1", "s2")
	tools := testutil.NewFakeTools(t)
	out := filepath.Join(dir, "out")

	var buf bytes.Buffer
	err := run(context.Background(), &buf, []string{
		"-m", manifest,
		"-c", tools.Config(t, ""),
		"--out", out,
		"--workers", "2",
	})
	require.NoError(t, err, buf.String())
	assert.FileExists(t, filepath.Join(out, "aggregate", "multiqc_report.html"))
}

func TestRunFailedJobIsError(t *testing.T) {
	dir := t.TempDir()
	manifest := testutil.SampleSet(t, dir, "s1")
	tools := testutil.NewFakeTools(t)
	tools.Set(t, "fail_s1", "")

	err := run(context.Background(), &bytes.Buffer{}, []string{
		"-m", manifest,
		"-c", tools.Config(t, ""),
		"--out", filepath.Join(dir, "out"),
	})
	require.ErrorIs(t, err, app.ErrRunFailed)
}

func TestRunBadConfigExitsWithUsageCode(t *testing.T) {
	dir := t.TempDir()
	err := run(context.Background(), &bytes.Buffer{}, []string{
		"-m", filepath.Join(dir, "s.csv"),
		"-c", filepath.Join(dir, "missing.hcl"),
		"--out", dir,
	})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunHelp(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), &buf, []string{"-h"}))
	assert.Contains(t, buf.String(), "trimgrid")
}
