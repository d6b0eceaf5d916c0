package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a sliding-window trimming setting: the window size in bases and
// the mean quality required inside the window.
type Window struct {
	Size    int
	Quality int
}

// ParseWindow parses the "<size>:<quality>" encoding used by override files
// and the global configuration.
func ParseWindow(s string) (Window, error) {
	size, quality, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Window{}, fmt.Errorf("sliding window %q: expected <size>:<quality>", s)
	}
	w := Window{}
	var err error
	if w.Size, err = strconv.Atoi(strings.TrimSpace(size)); err != nil {
		return Window{}, fmt.Errorf("sliding window %q: invalid size: %w", s, err)
	}
	if w.Quality, err = strconv.Atoi(strings.TrimSpace(quality)); err != nil {
		return Window{}, fmt.Errorf("sliding window %q: invalid quality: %w", s, err)
	}
	if w.Size <= 0 {
		return Window{}, fmt.Errorf("sliding window %q: size must be positive", s)
	}
	if w.Quality < 0 {
		return Window{}, fmt.Errorf("sliding window %q: quality must not be negative", s)
	}
	return w, nil
}

// String renders the window in its "<size>:<quality>" form.
func (w Window) String() string {
	return fmt.Sprintf("%d:%d", w.Size, w.Quality)
}

// TrimConfig is the fully resolved set of trimming parameters for one sample.
// It is a value type; once resolved for a job it is never modified.
type TrimConfig struct {
	LeadingQuality      int  `json:"leading_quality"`
	TrailingQuality     int  `json:"trailing_quality"`
	WindowSize          int  `json:"window_size"`
	WindowQuality       int  `json:"window_quality"`
	MinLength           int  `json:"min_length"`
	Deduplicate         bool `json:"deduplicate"`
	TrimPolyG           bool `json:"trim_poly_g"`
	LowComplexityFilter bool `json:"low_complexity_filter"`
	Customized          bool `json:"customized"`
}

// Window returns the sliding-window part of the configuration.
func (c TrimConfig) Window() Window {
	return Window{Size: c.WindowSize, Quality: c.WindowQuality}
}

// Defaults are the global trimming defaults every resolution falls back to.
type Defaults struct {
	LeadingQuality      int
	TrailingQuality     int
	Window              Window
	MinLength           int
	Deduplicate         bool
	TrimPolyG           bool
	LowComplexityFilter bool
}

// BuiltinDefaults returns the defaults used when no global configuration
// overrides them.
func BuiltinDefaults() Defaults {
	return Defaults{
		LeadingQuality:  3,
		TrailingQuality: 3,
		Window:          Window{Size: 4, Quality: 15},
		MinLength:       36,
	}
}

// Config returns the defaults as an uncustomized TrimConfig.
func (d Defaults) Config() TrimConfig {
	return TrimConfig{
		LeadingQuality:      d.LeadingQuality,
		TrailingQuality:     d.TrailingQuality,
		WindowSize:          d.Window.Size,
		WindowQuality:       d.Window.Quality,
		MinLength:           d.MinLength,
		Deduplicate:         d.Deduplicate,
		TrimPolyG:           d.TrimPolyG,
		LowComplexityFilter: d.LowComplexityFilter,
	}
}
