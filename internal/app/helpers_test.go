package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/trimgrid/internal/testutil"
)

// fixture is one on-disk sample set plus fake tools.
type fixture struct {
	dir      string
	manifest string
	out      string
	tools    *testutil.FakeTools
}

func newFixture(t *testing.T, samples ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	return &fixture{
		dir:      dir,
		manifest: testutil.SampleSet(t, dir, samples...),
		out:      filepath.Join(dir, "out"),
		tools:    testutil.NewFakeTools(t),
	}
}

func (f *fixture) config(t *testing.T, extraHCL string) Config {
	t.Helper()
	return Config{
		ManifestPath: f.manifest,
		ConfigPath:   f.tools.Config(t, extraHCL),
		OutDir:       f.out,
		Workers:      2,
		MaxThreads:   -1,
		LogFormat:    "text",
		LogLevel:     "debug",
	}
}

// setupAppTest creates a new app instance with logs captured in a buffer.
func setupAppTest(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()

	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	testApp, err := NewApp(logBuffer, validated)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("TRIMGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}
