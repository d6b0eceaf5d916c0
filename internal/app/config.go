package app

import (
	"errors"
	"path/filepath"
)

// Config holds everything an App instance needs for one run. Zero values of
// the override fields mean "take the value from the config file".
type Config struct {
	ManifestPath string
	ParamsPath   string // optional override file
	ConfigPath   string // optional global HCL config
	OutDir       string
	StateDir     string // defaults to <OutDir>/.trimgrid

	// Overrides for the global config. MaxThreads < 0 leaves it unset.
	Workers    int
	MaxThreads int
	RunSuffix  string

	Retries int
	Force   bool
	DryRun  bool

	LogFormat  string
	LogLevel   string
	StatusPort int
}

// NewConfig validates cfg and fills in derived defaults.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.ManifestPath == "" {
		errs = append(errs, errors.New("manifest path is required"))
	}
	if cfg.OutDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if cfg.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}
	if cfg.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	if cfg.StatusPort < 0 || cfg.StatusPort > 65535 {
		errs = append(errs, errors.New("status port must be between 0 and 65535"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(cfg.OutDir, ".trimgrid")
	}
	return &cfg, nil
}
