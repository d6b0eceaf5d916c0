package config

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/vk/trimgrid/internal/job"
	"github.com/vk/trimgrid/internal/params"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrConfigNotFound is returned when an explicitly given file is absent.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidConfig wraps every decoding and validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// fileRoot mirrors the top-level blocks of a config file.
type fileRoot struct {
	Defaults           *defaultsBlock  `hcl:"defaults,block"`
	Resources          *resourcesBlock `hcl:"resources,block"`
	AggregateResources *resourcesBlock `hcl:"aggregate_resources,block"`
	Tools              *toolsBlock     `hcl:"tools,block"`
	Manifest           *manifestBlock  `hcl:"manifest,block"`
}

type defaultsBlock struct {
	LeadingQuality      *int    `hcl:"leading_quality,optional"`
	TrailingQuality     *int    `hcl:"trailing_quality,optional"`
	SlidingWindow       *string `hcl:"sliding_window,optional"`
	MinLength           *int    `hcl:"min_length,optional"`
	Deduplication       *bool   `hcl:"deduplication,optional"`
	TrimPolyG           *bool   `hcl:"trim_poly_g,optional"`
	LowComplexityFilter *bool   `hcl:"low_complexity_filter,optional"`
}

type resourcesBlock struct {
	Threads     *int           `hcl:"threads,optional"`
	MemoryMB    *int           `hcl:"memory_mb,optional"`
	TimeBudget  hcl.Expression `hcl:"time_budget,optional"`
	Concurrency *int           `hcl:"concurrency,optional"`
	MaxThreads  *int           `hcl:"max_threads,optional"`
}

type toolsBlock struct {
	Trim      *string `hcl:"trim,optional"`
	Aggregate *string `hcl:"aggregate,optional"`
}

type manifestBlock struct {
	RunSuffix *string `hcl:"run_suffix,optional"`
}

// Load reads the global configuration file at path. An empty path returns
// the built-in configuration.
func Load(ctx context.Context, path string) (*Global, error) {
	logger := ctxlog.FromContext(ctx)
	g := Default()
	if path == "" {
		logger.Debug("No config file given, using built-in configuration.")
		return g, nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("error accessing config %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfig, path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrInvalidConfig, path, diags)
	}

	if err := root.apply(g); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	logger.Debug("Config loaded.",
		"path", path,
		"concurrency", g.Concurrency,
		"max_threads", g.MaxThreads,
		"trim_tool", g.TrimTool,
		"aggregate_tool", g.AggregateTool,
	)
	return g, nil
}

func (r *fileRoot) apply(g *Global) error {
	if d := r.Defaults; d != nil {
		setInt(&g.Defaults.LeadingQuality, d.LeadingQuality)
		setInt(&g.Defaults.TrailingQuality, d.TrailingQuality)
		setInt(&g.Defaults.MinLength, d.MinLength)
		setBool(&g.Defaults.Deduplicate, d.Deduplication)
		setBool(&g.Defaults.TrimPolyG, d.TrimPolyG)
		setBool(&g.Defaults.LowComplexityFilter, d.LowComplexityFilter)
		if d.SlidingWindow != nil {
			w, err := params.ParseWindow(*d.SlidingWindow)
			if err != nil {
				return fmt.Errorf("defaults: %w", err)
			}
			g.Defaults.Window = w
		}
	}

	if r.Resources != nil {
		if err := r.Resources.apply(&g.TrimResources); err != nil {
			return fmt.Errorf("resources: %w", err)
		}
		setInt(&g.Concurrency, r.Resources.Concurrency)
		setInt(&g.MaxThreads, r.Resources.MaxThreads)
	}
	if r.AggregateResources != nil {
		if r.AggregateResources.Concurrency != nil || r.AggregateResources.MaxThreads != nil {
			return errors.New("aggregate_resources: concurrency and max_threads belong in the resources block")
		}
		if err := r.AggregateResources.apply(&g.AggregateResources); err != nil {
			return fmt.Errorf("aggregate_resources: %w", err)
		}
	}

	if t := r.Tools; t != nil {
		setString(&g.TrimTool, t.Trim)
		setString(&g.AggregateTool, t.Aggregate)
	}
	if m := r.Manifest; m != nil {
		setString(&g.RunSuffix, m.RunSuffix)
	}
	return nil
}

func (b *resourcesBlock) apply(res *job.Resources) error {
	setInt(&res.Threads, b.Threads)
	setInt(&res.MemoryMB, b.MemoryMB)
	if b.TimeBudget == nil {
		return nil
	}
	val, diags := b.TimeBudget.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	d, set, err := durationValue(val)
	if err != nil {
		return fmt.Errorf("time_budget: %w", err)
	}
	if set {
		res.TimeBudget = d
	}
	return nil
}

// durationValue accepts either a Go duration string ("90m", "4h") or a
// whole number of seconds.
func durationValue(val cty.Value) (time.Duration, bool, error) {
	if val.IsNull() {
		return 0, false, nil
	}
	if !val.IsKnown() {
		return 0, false, errors.New("value must be known")
	}
	switch val.Type() {
	case cty.String:
		d, err := time.ParseDuration(val.AsString())
		if err != nil {
			return 0, false, err
		}
		return d, true, nil
	case cty.Number:
		secs, acc := val.AsBigFloat().Int64()
		if acc != big.Exact {
			return 0, false, errors.New("seconds must be a whole number")
		}
		return time.Duration(secs) * time.Second, true, nil
	default:
		return 0, false, fmt.Errorf("expected a duration string or seconds, got %s", val.Type().FriendlyName())
	}
}

// Validate checks value ranges. Quality thresholds of zero or less are
// allowed and disable the corresponding cut.
func (g *Global) Validate() error {
	var errs []error
	if g.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", g.Concurrency))
	}
	if g.MaxThreads < 0 {
		errs = append(errs, fmt.Errorf("max_threads must not be negative, got %d", g.MaxThreads))
	}
	if g.Defaults.MinLength < 0 {
		errs = append(errs, fmt.Errorf("min_length must not be negative, got %d", g.Defaults.MinLength))
	}
	for _, block := range []struct {
		name string
		res  job.Resources
	}{{"resources", g.TrimResources}, {"aggregate_resources", g.AggregateResources}} {
		name, res := block.name, block.res
		if res.Threads < 1 {
			errs = append(errs, fmt.Errorf("%s: threads must be at least 1, got %d", name, res.Threads))
		}
		if res.MemoryMB < 0 {
			errs = append(errs, fmt.Errorf("%s: memory_mb must not be negative, got %d", name, res.MemoryMB))
		}
		if res.TimeBudget < 0 {
			errs = append(errs, fmt.Errorf("%s: time_budget must not be negative, got %s", name, res.TimeBudget))
		}
	}
	if g.TrimTool == "" || g.AggregateTool == "" {
		errs = append(errs, errors.New("tool paths must not be empty"))
	}
	if _, err := regexp.Compile(g.RunSuffix); err != nil {
		errs = append(errs, fmt.Errorf("run_suffix: %w", err))
	}
	return errors.Join(errs...)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
