// Package manifest loads the sample sheet: one row per sample naming its
// paired input reads. Each sample also gets a run identifier derived from the
// left read's file name.
package manifest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/vk/trimgrid/internal/ctxlog"
)

// DefaultRunSuffix matches the read-1 suffix stripped from a left read's
// base name to form its run identifier, e.g. "SRR1_R1_001.fastq.gz" -> "SRR1".
const DefaultRunSuffix = `_R?1(_001)?\.f(ast)?q(\.gz)?$`

var (
	ErrManifestNotFound = errors.New("manifest not found")
	ErrManifestSchema   = errors.New("manifest schema error")
	// ErrDuplicateRunID is returned when two samples derive the same run id.
	ErrDuplicateRunID = errors.New("duplicate run id")
)

// SchemaError describes a missing column or an empty required cell.
type SchemaError struct {
	Row   int // 1-based line number in the file; 0 for header problems
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s: field %q: %s", ErrManifestSchema, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: row %d: field %q: %s", ErrManifestSchema, e.Row, e.Field, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrManifestSchema }

// Sample is one sequencing unit with its paired reads.
type Sample struct {
	Name       string
	InputLeft  string
	InputRight string
	RunID      string
}

// Options tunes how a manifest is read.
type Options struct {
	// RunSuffix is the regular expression removed from the left read's base
	// name to derive the run id. DefaultRunSuffix is used when empty.
	RunSuffix string
}

// column aliases accepted in the header row.
var (
	sampleColumns = []string{"sample", "sample_id", "name"}
	leftColumns   = []string{"fq1", "r1", "read1", "input_left"}
	rightColumns  = []string{"fq2", "r2", "read2", "input_right"}
)

// knownExtensions are stripped when the run suffix pattern does not match.
var knownExtensions = []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"}

// Load parses the manifest at path into a map keyed by sample name. Any
// malformed row aborts the whole load.
func Load(ctx context.Context, path string, opts Options) (map[string]*Sample, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading manifest.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	suffix := opts.RunSuffix
	if suffix == "" {
		suffix = DefaultRunSuffix
	}
	suffixRe, err := regexp.Compile(suffix)
	if err != nil {
		return nil, fmt.Errorf("invalid run suffix pattern %q: %w", suffix, err)
	}

	samples, err := parse(f, filepath.Dir(path), suffixRe)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	logger.Info("Manifest loaded.", "path", path, "samples", len(samples))
	return samples, nil
}

// Sorted returns the samples ordered by name.
func Sorted(samples map[string]*Sample) []*Sample {
	out := make([]*Sample, 0, len(samples))
	for _, s := range samples {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Sample) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func parse(r io.Reader, baseDir string, suffixRe *regexp.Regexp) (map[string]*Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	header, headerLine := "", 0
	for i, l := range lines {
		if t := strings.TrimSpace(l); t != "" && !strings.HasPrefix(t, "#") {
			header, headerLine = l, i+1
			break
		}
	}
	if header == "" {
		return nil, &SchemaError{Field: "header", Msg: "manifest has no header row"}
	}

	delim := ','
	if strings.Contains(header, "\t") {
		delim = '\t'
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines[headerLine-1:], "\n")))
	cr.Comma = delim
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(cols)
	if err != nil {
		return nil, err
	}

	samples := make(map[string]*Sample)
	runIDs := make(map[string]string)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		row := line + headerLine - 1
		if isBlank(rec) {
			continue
		}

		s := &Sample{}
		for _, f := range []struct {
			name string
			col  int
			dst  *string
		}{
			{"sample", idx.sample, &s.Name},
			{"fq1", idx.left, &s.InputLeft},
			{"fq2", idx.right, &s.InputRight},
		} {
			if f.col >= len(rec) || strings.TrimSpace(rec[f.col]) == "" {
				return nil, &SchemaError{Row: row, Field: f.name, Msg: "missing value"}
			}
			*f.dst = strings.TrimSpace(rec[f.col])
		}

		s.InputLeft = resolvePath(baseDir, s.InputLeft)
		s.InputRight = resolvePath(baseDir, s.InputRight)
		s.RunID = RunID(s.InputLeft, suffixRe)
		if s.RunID == "" {
			return nil, &SchemaError{Row: row, Field: "fq1", Msg: "cannot derive run id from file name"}
		}

		if _, dup := samples[s.Name]; dup {
			return nil, &SchemaError{Row: row, Field: "sample", Msg: fmt.Sprintf("duplicate sample %q", s.Name)}
		}
		if other, dup := runIDs[s.RunID]; dup {
			return nil, fmt.Errorf("%w: %q derived by samples %q and %q", ErrDuplicateRunID, s.RunID, other, s.Name)
		}
		samples[s.Name] = s
		runIDs[s.RunID] = s.Name
	}
	return samples, nil
}

type columns struct {
	sample, left, right int
}

func columnIndex(header []string) (columns, error) {
	find := func(field string, aliases []string) (int, error) {
		for i, h := range header {
			if slices.Contains(aliases, strings.ToLower(strings.TrimSpace(h))) {
				return i, nil
			}
		}
		return -1, &SchemaError{Field: field, Msg: fmt.Sprintf("missing column (accepted names: %s)", strings.Join(aliases, ", "))}
	}

	var c columns
	var err error
	if c.sample, err = find("sample", sampleColumns); err != nil {
		return c, err
	}
	if c.left, err = find("fq1", leftColumns); err != nil {
		return c, err
	}
	if c.right, err = find("fq2", rightColumns); err != nil {
		return c, err
	}
	return c, nil
}

// RunID derives the run identifier from a left read path.
func RunID(leftPath string, suffixRe *regexp.Regexp) string {
	base := filepath.Base(leftPath)
	if loc := suffixRe.FindStringIndex(base); loc != nil {
		return base[:loc[0]]
	}
	for _, ext := range knownExtensions {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
