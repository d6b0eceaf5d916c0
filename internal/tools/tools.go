// Package tools builds argument vectors for the external trimming and
// aggregation programs. Commands are always argv slices; nothing here goes
// through a shell.
package tools

import (
	"strconv"
	"strings"

	"github.com/vk/trimgrid/internal/params"
)

const (
	// DefaultTrimTool is the trimming executable looked up on PATH.
	DefaultTrimTool = "fastp"
	// DefaultAggregateTool is the report aggregation executable looked up on PATH.
	DefaultAggregateTool = "multiqc"

	// AggregateReportName and AggregateDataName are the artifacts the
	// aggregation tool writes into its output directory.
	AggregateReportName = "multiqc_report.html"
	AggregateDataName   = "multiqc_data"

	// MaxTrimThreads is the worker thread ceiling accepted by the trim tool.
	MaxTrimThreads = 16
)

// TrimThreads clamps a thread request to what the trim tool accepts.
func TrimThreads(n int) int {
	return min(max(n, 1), MaxTrimThreads)
}

// Command is a single process invocation.
type Command struct {
	Path string   `json:"path"`
	Args []string `json:"args"`
	// Env holds extra KEY=VALUE pairs for the process environment.
	Env []string `json:"env,omitempty"`
}

// String renders the command for logs. It is not meant to be fed to a shell.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Path}, c.Args...) {
		if p == "" || strings.ContainsAny(p, " \t\n\"'\\$") {
			p = strconv.Quote(p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// TrimInputs are the paired reads of one sample.
type TrimInputs struct {
	Left, Right string
}

// TrimOutputs are the four artifacts written by one trim invocation.
type TrimOutputs struct {
	Left, Right, HTML, JSON string
}

// Trim builds the trim tool invocation for one sample. Quality thresholds of
// zero or less disable the corresponding cut. Leading and trailing cuts use a
// one-base window, so their thresholds apply per base rather than to a mean.
// Poly-G trimming is always set explicitly because the tool enables it on its
// own for some instruments.
func Trim(tool string, in TrimInputs, out TrimOutputs, cfg params.TrimConfig, threads int, title string) Command {
	if tool == "" {
		tool = DefaultTrimTool
	}
	threads = TrimThreads(threads)

	args := []string{
		"--in1", in.Left,
		"--in2", in.Right,
		"--out1", out.Left,
		"--out2", out.Right,
		"--html", out.HTML,
		"--json", out.JSON,
		"--thread", strconv.Itoa(threads),
	}
	if title != "" {
		args = append(args, "--report_title", title)
	}
	if cfg.LeadingQuality > 0 {
		args = append(args,
			"--cut_front",
			"--cut_front_window_size", "1",
			"--cut_front_mean_quality", strconv.Itoa(cfg.LeadingQuality),
		)
	}
	if cfg.TrailingQuality > 0 {
		args = append(args,
			"--cut_tail",
			"--cut_tail_window_size", "1",
			"--cut_tail_mean_quality", strconv.Itoa(cfg.TrailingQuality),
		)
	}
	if cfg.WindowSize > 0 && cfg.WindowQuality > 0 {
		args = append(args,
			"--cut_right",
			"--cut_right_window_size", strconv.Itoa(cfg.WindowSize),
			"--cut_right_mean_quality", strconv.Itoa(cfg.WindowQuality),
		)
	}
	if cfg.MinLength > 0 {
		args = append(args, "--length_required", strconv.Itoa(cfg.MinLength))
	}
	if cfg.Deduplicate {
		args = append(args, "--dedup")
	}
	if cfg.TrimPolyG {
		args = append(args, "--trim_poly_g")
	} else {
		args = append(args, "--disable_trim_poly_g")
	}
	if cfg.LowComplexityFilter {
		args = append(args, "--low_complexity_filter")
	}
	return Command{Path: tool, Args: args}
}

// Aggregate builds the aggregation tool invocation over exactly the given
// json reports. Reports are passed as files, never as their directory, so
// leftovers from earlier runs in the same output directory are not picked up.
func Aggregate(tool string, reports []string, outDir string) Command {
	if tool == "" {
		tool = DefaultAggregateTool
	}
	args := make([]string, 0, len(reports)+4)
	args = append(args, reports...)
	args = append(args, "--outdir", outDir, "--force", "--no-ansi")
	return Command{Path: tool, Args: args}
}
