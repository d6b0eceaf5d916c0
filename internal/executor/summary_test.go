package executor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trimgrid/internal/job"
)

func TestSummaryWrite(t *testing.T) {
	g := buildGraph(t, "A", "B")
	runner := &fakeRunner{graph: g, hook: func(_ context.Context, j *job.Job, _ int) (bool, error) {
		if j.ID == job.TrimID("A") {
			return false, errors.New("exit status 1")
		}
		return false, nil
	}}

	summary, err := New(g, runner, nil, Options{Workers: 2, RunID: "r1"}).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "failed", summary.Status())

	var buf bytes.Buffer
	require.NoError(t, summary.Write(&buf))
	out := buf.String()

	assert.Contains(t, out, "RUN r1: failed (1 succeeded, 0 reused, 1 failed, 1 not run)")
	assert.Contains(t, out, "trim.A")
	assert.Contains(t, out, "JobProcessFailure")
	assert.Contains(t, out, "not run: dependencies did not succeed")
}
