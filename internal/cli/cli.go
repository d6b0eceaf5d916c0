package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/trimgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("trimgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
trimgrid - Paired-end read trimming for a whole sample set, with one
aggregated QC report at the end.

Usage:
  trimgrid [options] --out DIR [MANIFEST]

Arguments:
  MANIFEST
    Path to the sample manifest (CSV or TSV with sample, fq1 and fq2 columns).

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the sample manifest.")
	mFlag := flagSet.String("m", "", "Path to the sample manifest (shorthand).")
	paramsFlag := flagSet.String("params", "", "Optional per-sample parameter override file (.json, .yaml, .yml or .hcl).")
	configFlag := flagSet.String("config", "", "Optional global HCL config file.")
	cFlag := flagSet.String("c", "", "Optional global HCL config file (shorthand).")
	outFlag := flagSet.String("out", "", "Output directory.")
	stateDirFlag := flagSet.String("state-dir", "", "Directory for the run ledger. Defaults to <out>/.trimgrid.")
	workersFlag := flagSet.Int("workers", 0, "Maximum number of jobs running at once. 0 uses the config file value.")
	maxThreadsFlag := flagSet.Int("max-threads", -1, "Cap on the summed thread requests of running jobs. 0 disables, -1 uses the config file value.")
	retriesFlag := flagSet.Int("retries", 0, "Extra attempts for jobs that fail or time out.")
	forceFlag := flagSet.Bool("force", false, "Rerun every job even if valid outputs from an earlier run exist.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the resolved plan without running anything.")
	runSuffixFlag := flagSet.String("run-suffix", "", "Regular expression stripped from the left read file name to derive the run id.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	manifest := firstNonEmpty(*manifestFlag, *mFlag)
	if manifest == "" && flagSet.NArg() > 0 {
		manifest = flagSet.Arg(0)
	}
	if manifest == "" {
		slog.Debug("No manifest provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 || (flagSet.NArg() == 1 && firstNonEmpty(*manifestFlag, *mFlag) != "") {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args(), " "))}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	if *maxThreadsFlag < -1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid max-threads: must be -1, 0 or positive"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ManifestPath: manifest,
		ParamsPath:   *paramsFlag,
		ConfigPath:   firstNonEmpty(*configFlag, *cFlag),
		OutDir:       *outFlag,
		StateDir:     *stateDirFlag,
		Workers:      *workersFlag,
		MaxThreads:   *maxThreadsFlag,
		RunSuffix:    *runSuffixFlag,
		Retries:      *retriesFlag,
		Force:        *forceFlag,
		DryRun:       *dryRunFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		StatusPort:   *statusPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
