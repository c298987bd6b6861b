package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float32(65), cfg.Camera.FOV)
	assert.Equal(t, float32(0.1), cfg.Camera.Near)
	assert.Equal(t, float32(100), cfg.Camera.Far)
	assert.Equal(t, [3]float32{0, 1, 5}, cfg.Camera.Position)
	assert.True(t, cfg.Controls.EnableDamping)
	assert.Equal(t, float32(0.05), cfg.Controls.DampingFactor)
	assert.True(t, cfg.Controls.AutoRotate)
	assert.Equal(t, DefaultEnvironmentURL, cfg.Assets.Environment)
	assert.Equal(t, DefaultModelPath, cfg.Assets.Model)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assets:
  model: ./Models/helmet.glb
controls:
  auto_rotate: false
renderer:
  tone_mapping: reinhard
  exposure: 1.5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./Models/helmet.glb", cfg.Assets.Model)
	assert.False(t, cfg.Controls.AutoRotate)
	assert.Equal(t, "reinhard", cfg.Renderer.ToneMapping)
	assert.Equal(t, float32(1.5), cfg.Renderer.Exposure)
	// untouched sections keep their defaults
	assert.Equal(t, DefaultEnvironmentURL, cfg.Assets.Environment)
	assert.Equal(t, 1280, cfg.Window.Width)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax": "window: [",
		"fov":    "camera:\n  fov: 200\n",
		"planes": "camera:\n  near: 5\n  far: 1\n",
		"size":   "window:\n  width: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "viewer.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDefaultKeepsNothingOnDisk(t *testing.T) {
	assert.Empty(t, Default().Assets.CacheDir)
}

func TestLoadEnablesCacheWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assets:\n  cache_dir: /tmp/viewer-cache\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/viewer-cache", cfg.Assets.CacheDir)
}
