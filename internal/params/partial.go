package params

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Partial is one override entry. A nil field means "not set here, use the
// global default".
type Partial struct {
	LeadingQuality      *int    `json:"leading_quality,omitempty" yaml:"leading_quality"`
	TrailingQuality     *int    `json:"trailing_quality,omitempty" yaml:"trailing_quality"`
	SlidingWindow       *Window `json:"sliding_window,omitempty" yaml:"sliding_window"`
	MinLength           *int    `json:"min_length,omitempty" yaml:"min_length"`
	Deduplication       *bool   `json:"deduplication,omitempty" yaml:"deduplication"`
	TrimPolyG           *bool   `json:"trim_poly_g,omitempty" yaml:"trim_poly_g"`
	LowComplexityFilter *bool   `json:"low_complexity_filter,omitempty" yaml:"low_complexity_filter"`
}

// Merge applies a matched override entry on top of the defaults. The result
// is always marked Customized.
func Merge(d Defaults, p Partial) TrimConfig {
	cfg := d.Config()
	if p.LeadingQuality != nil {
		cfg.LeadingQuality = *p.LeadingQuality
	}
	if p.TrailingQuality != nil {
		cfg.TrailingQuality = *p.TrailingQuality
	}
	if p.SlidingWindow != nil {
		cfg.WindowSize = p.SlidingWindow.Size
		cfg.WindowQuality = p.SlidingWindow.Quality
	}
	if p.MinLength != nil {
		cfg.MinLength = *p.MinLength
	}
	if p.Deduplication != nil {
		cfg.Deduplicate = *p.Deduplication
	}
	if p.TrimPolyG != nil {
		cfg.TrimPolyG = *p.TrimPolyG
	}
	if p.LowComplexityFilter != nil {
		cfg.LowComplexityFilter = *p.LowComplexityFilter
	}
	cfg.Customized = true
	return cfg
}

// UnmarshalYAML decodes a window from its "<size>:<quality>" scalar.
func (w *Window) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: sliding_window must be a string: %w", node.Line, err)
	}
	parsed, err := ParseWindow(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*w = parsed
	return nil
}

// UnmarshalJSON decodes a window from its "<size>:<quality>" string.
func (w *Window) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("sliding_window must be a string: %w", err)
	}
	parsed, err := ParseWindow(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// MarshalJSON encodes a window as "<size>:<quality>".
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}
