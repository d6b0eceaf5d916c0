package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"
)

var (
	// ErrParameterFileMissing reports that the override file does not exist.
	ErrParameterFileMissing = errors.New("parameter file missing")
	// ErrParameterFileParseError reports that the override file is present
	// but could not be decoded.
	ErrParameterFileParseError = errors.New("parameter file parse error")
)

// Load reads the override file at path and never fails: a missing or
// malformed file is logged as a warning and yields an empty table. An empty
// path means no override file was configured.
func Load(ctx context.Context, path string) *Table {
	logger := ctxlog.FromContext(ctx)
	if path == "" {
		logger.Debug("No parameter file configured, using global defaults for every sample.")
		return Empty()
	}

	table, err := Read(path)
	if err != nil {
		logger.Warn("Parameter overrides unavailable, falling back to global defaults.", "path", path, "error", err)
		return Empty()
	}
	logger.Info("Parameter overrides loaded.", "path", path, "entries", table.Len())
	return table
}

// Read decodes the override file at path. The format is picked from the
// extension: .json, .yaml/.yml or .hcl. Unknown extensions are decoded as
// YAML, which also accepts most JSON.
func Read(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrParameterFileMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrParameterFileParseError, path, err)
	}

	var entries map[string]Partial
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &entries)
	case ".hcl":
		entries, err = decodeHCL(path, data)
	default:
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParameterFileParseError, path, err)
	}
	return NewTable(entries), nil
}

// hclRoot is the HCL schema of an override file: one labeled block per key.
//
//	sample "SRR001" {
//	  leading_quality = 5
//	  sliding_window  = "4:20"
//	}
type hclRoot struct {
	Entries []*hclEntry `hcl:"sample,block"`
}

type hclEntry struct {
	Key  string   `hcl:"key,label"`
	Body hcl.Body `hcl:",remain"`
}

func decodeHCL(path string, data []byte) (map[string]Partial, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, diags
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	entries := make(map[string]Partial, len(root.Entries))
	for _, e := range root.Entries {
		if _, dup := entries[e.Key]; dup {
			return nil, fmt.Errorf("duplicate sample block %q", e.Key)
		}
		p, err := decodeHCLEntry(e)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", e.Key, err)
		}
		entries[e.Key] = p
	}
	return entries, nil
}

// decodeHCLEntry evaluates each attribute to a cty.Value and converts it into
// the matching optional field.
func decodeHCLEntry(e *hclEntry) (Partial, error) {
	attrs, diags := e.Body.JustAttributes()
	if diags.HasErrors() {
		return Partial{}, diags
	}

	var p Partial
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return Partial{}, diags
		}
		if val.IsNull() {
			continue
		}

		var err error
		switch name {
		case "leading_quality":
			p.LeadingQuality, err = ctyInt(val)
		case "trailing_quality":
			p.TrailingQuality, err = ctyInt(val)
		case "min_length":
			p.MinLength, err = ctyInt(val)
		case "deduplication":
			p.Deduplication, err = ctyBool(val)
		case "trim_poly_g":
			p.TrimPolyG, err = ctyBool(val)
		case "low_complexity_filter":
			p.LowComplexityFilter, err = ctyBool(val)
		case "sliding_window":
			var s string
			if err = gocty.FromCtyValue(val, &s); err == nil {
				var w Window
				if w, err = ParseWindow(s); err == nil {
					p.SlidingWindow = &w
				}
			}
		default:
			err = fmt.Errorf("unsupported attribute %q", name)
		}
		if err != nil {
			return Partial{}, fmt.Errorf("attribute %q: %w", name, err)
		}
	}
	return p, nil
}

func ctyInt(val cty.Value) (*int, error) {
	var i int
	if err := gocty.FromCtyValue(val, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func ctyBool(val cty.Value) (*bool, error) {
	var b bool
	if err := gocty.FromCtyValue(val, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
