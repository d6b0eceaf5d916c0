package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults state dir under out dir", func(t *testing.T) {
		cfg, err := NewConfig(Config{ManifestPath: "m.csv", OutDir: "/data/out"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/data/out", ".trimgrid"), cfg.StateDir)
	})

	t.Run("keeps explicit state dir", func(t *testing.T) {
		cfg, err := NewConfig(Config{ManifestPath: "m.csv", OutDir: "/data/out", StateDir: "/var/lib/trimgrid"})
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/trimgrid", cfg.StateDir)
	})

	t.Run("reports every problem", func(t *testing.T) {
		_, err := NewConfig(Config{Workers: -1, StatusPort: 70000})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "manifest path is required")
		assert.Contains(t, err.Error(), "output directory is required")
		assert.Contains(t, err.Error(), "workers must not be negative")
		assert.Contains(t, err.Error(), "status port")
	})
}
