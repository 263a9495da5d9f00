package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Index.Dimension)
	assert.Equal(t, "zstd", cfg.Index.Compression)
	assert.InDelta(t, 0.3, cfg.Weights.Demographic, 1e-9)
	assert.InDelta(t, 0.6, cfg.Weights.Ethnicity, 1e-9)
	assert.Equal(t, 250*time.Millisecond, cfg.Lookup.Timeout)
	assert.Equal(t, 8, cfg.Lookup.Concurrency)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skinmatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
index:
  dimension: 128
  snapshot_path: /var/lib/skinmatch/index.snap
  compression: lz4
weights:
  demographic: 0.5
  ethnicity: 2
  skin_type: 1
  age_group: 1
lookup:
  timeout: 100ms
  concurrency: 4
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Index.Dimension)
	assert.Equal(t, "/var/lib/skinmatch/index.snap", cfg.Index.SnapshotPath)
	assert.Equal(t, "lz4", cfg.Index.Compression)
	assert.Equal(t, 100*time.Millisecond, cfg.Lookup.Timeout)
	assert.Equal(t, 4, cfg.Lookup.Concurrency)

	w := cfg.BlendWeights().Normalized()
	assert.InDelta(t, 0.5, w.Demographic, 1e-9)
	assert.InDelta(t, 0.5, w.Ethnicity, 1e-9)
	assert.InDelta(t, 0.25, w.SkinType, 1e-9)
	assert.InDelta(t, 0.25, w.AgeGroup, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
