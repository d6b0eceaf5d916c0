package params

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trimgrid/internal/ctxlog"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadJSON(t *testing.T) {
	path := writeFile(t, "params.json", `{
  "A": {"deduplication": true},
  "SRR2": {"leading_quality": 5, "sliding_window": "5:20", "min_length": 50}
}`)

	table, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "SRR2"}, table.Keys())

	a, ok := table.Lookup("A")
	require.True(t, ok)
	require.NotNil(t, a.Deduplication)
	assert.True(t, *a.Deduplication)
	assert.Nil(t, a.LeadingQuality)

	b, _ := table.Lookup("SRR2")
	assert.Equal(t, 5, *b.LeadingQuality)
	assert.Equal(t, Window{Size: 5, Quality: 20}, *b.SlidingWindow)
	assert.Equal(t, 50, *b.MinLength)
}

func TestReadYAML(t *testing.T) {
	path := writeFile(t, "params.yaml", `
A:
  trim_poly_g: true
  low_complexity_filter: true
B:
  trailing_quality: 20
`)

	table, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	a, _ := table.Lookup("A")
	assert.True(t, *a.TrimPolyG)
	assert.True(t, *a.LowComplexityFilter)
	b, _ := table.Lookup("B")
	assert.Equal(t, 20, *b.TrailingQuality)
}

func TestReadHCL(t *testing.T) {
	path := writeFile(t, "params.hcl", `
sample "A" {
  leading_quality = 7
  sliding_window  = "3:30"
  deduplication   = true
}

sample "SRR5" {
  min_length = 25
}
`)

	table, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "SRR5"}, table.Keys())

	a, _ := table.Lookup("A")
	assert.Equal(t, 7, *a.LeadingQuality)
	assert.Equal(t, Window{Size: 3, Quality: 30}, *a.SlidingWindow)
	assert.True(t, *a.Deduplication)
	assert.Nil(t, a.MinLength)
}

func TestReadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, ErrParameterFileMissing)
	})

	cases := map[string]string{
		"bad.json":    `{"A": {`,
		"window.json": `{"A": {"sliding_window": "4-15"}}`,
		"bad.yaml":    "A: [unterminated",
		"bad.hcl":     `sample "A" { unknown_field = 1 }`,
		"type.hcl":    `sample "A" { leading_quality = "high" }`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(writeFile(t, name, content))
			assert.ErrorIs(t, err, ErrParameterFileParseError)
		})
	}
}

func TestLoadDegradesToEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	t.Run("missing", func(t *testing.T) {
		buf.Reset()
		table := Load(ctx, filepath.Join(t.TempDir(), "absent.json"))
		require.NotNil(t, table)
		assert.Equal(t, 0, table.Len())
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "parameter file missing")
	})

	t.Run("malformed", func(t *testing.T) {
		buf.Reset()
		table := Load(ctx, writeFile(t, "broken.json", "{{"))
		assert.Equal(t, 0, table.Len())
		assert.Contains(t, buf.String(), "parameter file parse error")
	})

	t.Run("not configured", func(t *testing.T) {
		buf.Reset()
		assert.Equal(t, 0, Load(ctx, "").Len())
		assert.NotContains(t, buf.String(), "level=WARN")
	})
}

func TestTableIsCopied(t *testing.T) {
	entries := map[string]Partial{"A": {}}
	table := NewTable(entries)
	entries["B"] = Partial{}

	assert.Equal(t, 1, table.Len())
	keys := table.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"A"}, table.Keys())
}
