package job

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/vk/trimgrid/internal/dag"
	"github.com/vk/trimgrid/internal/manifest"
	"github.com/vk/trimgrid/internal/params"
	"github.com/vk/trimgrid/internal/tools"
	"github.com/vk/trimgrid/internal/verify"
)

// AggregateID is the id of the single aggregate job.
const AggregateID = "aggregate"

// TrimID returns the id of a sample's trim job.
func TrimID(sample string) string {
	return "trim." + sample
}

// BuildOptions carries everything besides samples and parameters that the
// builder needs to describe jobs.
type BuildOptions struct {
	Layout             Layout
	TrimTool           string
	AggregateTool      string
	TrimResources      Resources
	AggregateResources Resources
}

// Build expands the sample set into one trim job per sample plus the
// aggregate job depending on every trim job's json report.
func Build(ctx context.Context, samples map[string]*manifest.Sample, table *params.Table, defaults params.Defaults, opts BuildOptions) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	if len(samples) == 0 {
		return nil, ErrEmptySampleSet
	}

	g := &Graph{
		dag:  dag.New(),
		jobs: make(map[string]*Job, len(samples)+1),
	}

	trimRes := opts.TrimResources
	if n := tools.TrimThreads(trimRes.Threads); n != trimRes.Threads {
		logger.Warn("Trim thread request adjusted to the tool's accepted range.", "requested", trimRes.Threads, "threads", n)
		trimRes.Threads = n
	}

	var reports []string
	for _, s := range manifest.Sorted(samples) {
		if err := validateName(s.Name); err != nil {
			return nil, err
		}

		res := params.Resolve(table, s.Name, s.RunID, defaults)
		out := opts.Layout.TrimOutputs(s.Name)
		id := TrimID(s.Name)
		cmd := tools.Trim(opts.TrimTool,
			tools.TrimInputs{Left: s.InputLeft, Right: s.InputRight},
			out, res.Config, trimRes.Threads, s.Name)
		j := &Job{
			ID:         id,
			Kind:       TrimKind,
			Sample:     s,
			Config:     res.Config,
			Resolution: res,
			Command:    cmd,
			Inputs:     []string{s.InputLeft, s.InputRight},
			Outputs:    []verify.Artifact{{Path: out.Left}, {Path: out.Right}, {Path: out.HTML}, {Path: out.JSON}},
			Resources:  trimRes,
			LogPath:    opts.Layout.LogPath(id),
		}
		logger.Debug("Resolved trim parameters.",
			"sample", s.Name,
			"run_id", s.RunID,
			"match", res.Step.String(),
			"key", res.Key,
			"customized", res.Config.Customized,
		)

		g.add(j)
		g.trims = append(g.trims, j)
		reports = append(reports, out.JSON)
	}

	aggOutputs := []verify.Artifact{
		{Path: opts.Layout.AggregateReport()},
		{Path: opts.Layout.AggregateData(), Dir: true},
	}
	agg := &Job{
		ID:        AggregateID,
		Kind:      AggregateKind,
		Command:   tools.Aggregate(opts.AggregateTool, reports, opts.Layout.AggregateDir()),
		Inputs:    reports,
		Outputs:   aggOutputs,
		Resources: opts.AggregateResources,
		LogPath:   opts.Layout.LogPath(AggregateID),
	}
	g.add(agg)
	g.aggregate = agg

	for _, t := range g.trims {
		if err := g.dag.AddEdge(t.ID, agg.ID); err != nil {
			return nil, fmt.Errorf("link %s -> %s: %w", t.ID, agg.ID, err)
		}
	}
	agg.pendingDeps.Store(int32(len(g.trims)))

	order, err := g.dag.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("invalid job graph: %w", err)
	}
	g.order = order

	logger.Info("Job graph built.", "trim_jobs", len(g.trims), "total_jobs", g.Len())
	return g, nil
}

func (g *Graph) add(j *Job) {
	g.dag.AddNode(j.ID)
	g.jobs[j.ID] = j
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidSampleName, name)
	}
	return nil
}
