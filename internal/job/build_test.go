package job

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trimgrid/internal/manifest"
	"github.com/vk/trimgrid/internal/params"
	"github.com/vk/trimgrid/internal/tools"
)

func testSamples() map[string]*manifest.Sample {
	return map[string]*manifest.Sample{
		"B": {Name: "B", InputLeft: "/in/SRR2_1.fq.gz", InputRight: "/in/SRR2_2.fq.gz", RunID: "SRR2"},
		"A": {Name: "A", InputLeft: "/in/SRR1_1.fq.gz", InputRight: "/in/SRR1_2.fq.gz", RunID: "SRR1"},
	}
}

func testOptions(out string) BuildOptions {
	return BuildOptions{
		Layout:             Layout{OutDir: out},
		TrimResources:      Resources{Threads: 4, MemoryMB: 4096, TimeBudget: time.Hour},
		AggregateResources: Resources{Threads: 1, MemoryMB: 1024, TimeBudget: 10 * time.Minute},
	}
}

func TestBuildWithoutOverrides(t *testing.T) {
	out := t.TempDir()
	d := params.BuiltinDefaults()

	g, err := Build(context.Background(), testSamples(), params.Empty(), d, testOptions(out))
	require.NoError(t, err)

	require.Equal(t, 3, g.Len())
	trims := g.Trims()
	require.Len(t, trims, 2)
	assert.Equal(t, "trim.A", trims[0].ID)
	assert.Equal(t, "trim.B", trims[1].ID)

	for _, tj := range trims {
		assert.Equal(t, TrimKind, tj.Kind)
		assert.Equal(t, d.Config(), tj.Config)
		assert.False(t, tj.Config.Customized)
		assert.Equal(t, params.NoMatch, tj.Resolution.Step)
		assert.Len(t, tj.Outputs, 4)
		assert.Equal(t, Pending, tj.State())
		assert.Equal(t, int32(0), tj.PendingDeps())
		assert.Equal(t, tools.DefaultTrimTool, tj.Command.Path)
		assert.Equal(t, filepath.Join(out, "logs", tj.ID+".log"), tj.LogPath)
	}

	agg := g.Aggregate()
	require.NotNil(t, agg)
	assert.Equal(t, AggregateKind, agg.Kind)
	assert.Equal(t, int32(2), agg.PendingDeps())
	assert.Equal(t, []string{
		filepath.Join(out, "reports", "json", "A.json"),
		filepath.Join(out, "reports", "json", "B.json"),
	}, agg.Inputs)
	require.Len(t, agg.Outputs, 2)
	assert.Equal(t, filepath.Join(out, "aggregate", tools.AggregateReportName), agg.Outputs[0].Path)
	assert.True(t, agg.Outputs[1].Dir)
	assert.Equal(t, []string{
		filepath.Join(out, "reports", "json", "A.json"),
		filepath.Join(out, "reports", "json", "B.json"),
		"--outdir", filepath.Join(out, "aggregate"), "--force", "--no-ansi",
	}, agg.Command.Args, "only this graph's reports are aggregated")

	deps := g.Dependencies(AggregateID)
	require.Len(t, deps, 2)
	assert.Equal(t, "trim.A", deps[0].ID)
	assert.Empty(t, g.Dependencies("trim.A"))
	assert.Equal(t, []*Job{agg}, g.Dependents("trim.B"))

	roots := g.Roots()
	assert.Len(t, roots, 2)

	jobs := g.Jobs()
	assert.Equal(t, AggregateID, jobs[len(jobs)-1].ID, "aggregate comes after every trim job")
}

func TestBuildClampsTrimThreads(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.TrimResources.Threads = 64

	g, err := Build(context.Background(), testSamples(), params.Empty(), params.BuiltinDefaults(), opts)
	require.NoError(t, err)

	for _, tj := range g.Trims() {
		assert.Equal(t, tools.MaxTrimThreads, tj.Resources.Threads)
		assert.Contains(t, tj.Command.String(), "--thread 16")
	}
	assert.Equal(t, 1, g.Aggregate().Resources.Threads)
}

func TestBuildResolvesOverrides(t *testing.T) {
	dedup := true
	table := params.NewTable(map[string]params.Partial{"A": {Deduplication: &dedup}})
	d := params.BuiltinDefaults()

	g, err := Build(context.Background(), testSamples(), table, d, testOptions(t.TempDir()))
	require.NoError(t, err)

	a, ok := g.Job("trim.A")
	require.True(t, ok)
	want := d.Config()
	want.Deduplicate = true
	want.Customized = true
	assert.Equal(t, want, a.Config)
	assert.Contains(t, a.Command.Args, "--dedup")

	b, _ := g.Job("trim.B")
	assert.Equal(t, d.Config(), b.Config)
	assert.NotContains(t, b.Command.Args, "--dedup")
}

func TestBuildIsDeterministic(t *testing.T) {
	window := params.Window{Size: 5, Quality: 25}
	table := params.NewTable(map[string]params.Partial{"x-SRR2-y": {SlidingWindow: &window}})
	out := t.TempDir()

	first, err := Build(context.Background(), testSamples(), table, params.BuiltinDefaults(), testOptions(out))
	require.NoError(t, err)
	second, err := Build(context.Background(), testSamples(), table, params.BuiltinDefaults(), testOptions(out))
	require.NoError(t, err)

	for _, j := range first.Jobs() {
		other, ok := second.Job(j.ID)
		require.True(t, ok)
		assert.Equal(t, j.Config, other.Config)
		assert.Equal(t, j.Command, other.Command)
	}
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(context.Background(), nil, params.Empty(), params.BuiltinDefaults(), testOptions(t.TempDir()))
	assert.ErrorIs(t, err, ErrEmptySampleSet)

	bad := map[string]*manifest.Sample{"../x": {Name: "../x", InputLeft: "a", InputRight: "b", RunID: "a"}}
	_, err = Build(context.Background(), bad, params.Empty(), params.BuiltinDefaults(), testOptions(t.TempDir()))
	assert.ErrorIs(t, err, ErrInvalidSampleName)
}
