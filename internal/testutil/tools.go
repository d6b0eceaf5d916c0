package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// FakeTools are shell stand-ins for the trim and aggregate tools. They write
// plausible outputs where the real tools would, and change behavior when a
// marker file exists in Control:
//
//	fail_<sample>    trim exits 1 for that sample
//	empty_<sample>   trim leaves a zero-length left output
//	sleep_<sample>   trim sleeps for the number of seconds in the file
//	fail_aggregate   aggregate exits 1
type FakeTools struct {
	Trim      string
	Aggregate string
	Control   string
}

const fakeTrimScript = `#!/bin/sh
ctl=%q
while [ $# -gt 0 ]; do
  case "$1" in
    --out1) out1="$2"; shift 2 ;;
    --out2) out2="$2"; shift 2 ;;
    --html) html="$2"; shift 2 ;;
    --json) json="$2"; shift 2 ;;
    --report_title) title="$2"; shift 2 ;;
    *) shift ;;
  esac
done
echo "fake trim $title threads=$TRIMGRID_THREADS"
if [ -e "$ctl/sleep_$title" ]; then sleep "$(cat "$ctl/sleep_$title")"; fi
if [ -e "$ctl/fail_$title" ]; then echo "trim failed for $title" >&2; exit 1; fi
echo "trimmed reads" > "$out1"
echo "trimmed reads" > "$out2"
echo "<html>$title</html>" > "$html"
echo "{\"sample\":\"$title\"}" > "$json"
if [ -e "$ctl/empty_$title" ]; then : > "$out1"; fi
echo "$title" >> "$ctl/trim_calls"
`

const fakeAggregateScript = `#!/bin/sh
ctl=%q
outdir=""
: > "$ctl/aggregate_inputs"
while [ $# -gt 0 ]; do
  case "$1" in
    --outdir) outdir="$2"; shift 2 ;;
    --*) shift ;;
    *) basename "$1" >> "$ctl/aggregate_inputs"; shift ;;
  esac
done
echo "fake aggregate into $outdir"
if [ -e "$ctl/fail_aggregate" ]; then echo "aggregate failed" >&2; exit 1; fi
mkdir -p "$outdir/multiqc_data"
echo "<html>report</html>" > "$outdir/multiqc_report.html"
echo "ok" > "$outdir/multiqc_data/multiqc.log"
echo "aggregate" >> "$ctl/aggregate_calls"
`

// NewFakeTools writes both scripts into a fresh temp directory. Tests that
// use it are skipped on Windows.
func NewFakeTools(t *testing.T) *FakeTools {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are /bin/sh scripts")
	}
	dir := t.TempDir()
	ft := &FakeTools{
		Trim:      filepath.Join(dir, "fastp"),
		Aggregate: filepath.Join(dir, "multiqc"),
		Control:   filepath.Join(dir, "control"),
	}
	require.NoError(t, os.MkdirAll(ft.Control, 0o755))
	require.NoError(t, os.WriteFile(ft.Trim, []byte(fmt.Sprintf(fakeTrimScript, ft.Control)), 0o755))
	require.NoError(t, os.WriteFile(ft.Aggregate, []byte(fmt.Sprintf(fakeAggregateScript, ft.Control)), 0o755))
	return ft
}

// Set creates a marker file with the given content.
func (ft *FakeTools) Set(t *testing.T, marker, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(ft.Control, marker), []byte(content), 0o644))
}

// Clear removes a marker file.
func (ft *FakeTools) Clear(t *testing.T, marker string) {
	t.Helper()
	require.NoError(t, os.RemoveAll(filepath.Join(ft.Control, marker)))
}

// Calls returns how many times the trim tool completed for sample, or the
// aggregate tool when sample is "aggregate".
func (ft *FakeTools) Calls(t *testing.T, sample string) int {
	t.Helper()
	file, want := "trim_calls", sample
	if sample == "aggregate" {
		file = "aggregate_calls"
	}
	data, err := os.ReadFile(filepath.Join(ft.Control, file))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	n := 0
	for _, line := range strings.Fields(string(data)) {
		if line == want {
			n++
		}
	}
	return n
}

// AggregateInputs returns the base names of the report files handed to the
// most recent aggregate invocation.
func (ft *FakeTools) AggregateInputs(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ft.Control, "aggregate_inputs"))
	require.NoError(t, err)
	return strings.Fields(string(data))
}

// Config returns an HCL global config that points at the fake tools.
func (ft *FakeTools) Config(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trimgrid.hcl")
	body := fmt.Sprintf("tools {\n  trim      = %q\n  aggregate = %q\n}\n%s", ft.Trim, ft.Aggregate, extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
