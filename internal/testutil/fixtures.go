// Package testutil holds fixtures shared by the package tests: captured log
// buffers, on-disk sample sets and fake trim and aggregate tools.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFiles writes each entry of files below root, creating parent
// directories. Keys are slash-separated relative paths.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// SampleRow is one manifest line.
type SampleRow struct {
	Name  string
	Left  string
	Right string
}

// WriteManifest writes a comma-separated manifest with an fq1/fq2 header
// and returns its path.
func WriteManifest(t *testing.T, dir string, rows ...SampleRow) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("sample,fq1,fq2\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,%s\n", r.Name, r.Left, r.Right)
	}
	path := filepath.Join(dir, "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// SampleSet creates a paired read file set for each name under dir/reads,
// named "<run>_1.fastq.gz" and "<run>_2.fastq.gz" with run "SRR<n>", and
// writes the matching manifest. Paths in the manifest are relative to it.
func SampleSet(t *testing.T, dir string, names ...string) string {
	t.Helper()
	files := make(map[string]string, 2*len(names))
	rows := make([]SampleRow, 0, len(names))
	for i, name := range names {
		run := fmt.Sprintf("SRR%d", 100+i)
		left := "reads/" + run + "_1.fastq.gz"
		right := "reads/" + run + "_2.fastq.gz"
		files[left] = "@" + run + "/1\nACGT\n+\nIIII\n"
		files[right] = "@" + run + "/2\nTGCA\n+\nIIII\n"
		rows = append(rows, SampleRow{Name: name, Left: left, Right: right})
	}
	WriteFiles(t, dir, files)
	return WriteManifest(t, dir, rows...)
}
