package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.LogFile)
	assert.Equal(t, "./maps", cfg.MapsDir)
	assert.Equal(t, map[string]string{"upper": "upper.yaml", "lower": "lower.json"}, cfg.Maps)
	assert.Equal(t, "upper", cfg.StartView)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 0.5, cfg.Viewport.MinScale)
	assert.Equal(t, 10.0, cfg.Viewport.MaxScale)
	assert.Equal(t, 1.25, cfg.Viewport.ZoomStep)
	assert.Equal(t, 0.9, cfg.Viewport.FitCoverage)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 800, cfg.Window.Height)
	assert.Equal(t, 2*time.Second, cfg.Watch.Interval)
	assert.Equal(t, 800*time.Millisecond, cfg.Clipboard.Feedback)
}

func TestLoad_WithConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	cfg := `
logLevel: debug
devMode: true
maps:
  upper: top.json
viewport:
  maxScale: 4
watch:
  interval: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", got.LogLevel)
	assert.True(t, got.DevMode)
	assert.Equal(t, "top.json", got.Maps["upper"])
	assert.Equal(t, "lower.json", got.Maps["lower"])
	assert.Equal(t, 4.0, got.Viewport.MaxScale)
	assert.Equal(t, 500*time.Millisecond, got.Watch.Interval)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("PCBANNOT_LOGLEVEL", "warn")
	t.Setenv("PCBANNOT_WINDOW_WIDTH", "640")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 640, cfg.Window.Width)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pcb-annotator.yaml"), []byte("logLevel: [unclosed"), 0o644))
		t.Chdir(dir)
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("viewport:\n  minScale: 0\n  zoomStep: 1\nstartView: middle\nwatch:\n  interval: 0s\n"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "minScale must be positive")
		assert.Contains(t, err.Error(), "zoomStep must be greater than 1")
		assert.Contains(t, err.Error(), `startView "middle"`)
		assert.Contains(t, err.Error(), "watch.interval must be positive")
	})
}

func TestViewNamesAndMapPath(t *testing.T) {
	cfg := &Config{
		MapsDir:   "maps",
		StartView: "upper",
		Maps:      map[string]string{"lower": "lower.json", "upper": "upper.yaml", "inner": "/abs/inner.yaml"},
	}
	assert.Equal(t, []string{"upper", "inner", "lower"}, cfg.ViewNames())

	p, ok := cfg.MapPath("lower")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("maps", "lower.json"), p)

	p, ok = cfg.MapPath("inner")
	assert.True(t, ok)
	assert.Equal(t, "/abs/inner.yaml", p)

	_, ok = cfg.MapPath("missing")
	assert.False(t, ok)
}

func TestLimits(t *testing.T) {
	cfg := &Config{Viewport: ViewportConfig{MinScale: 1, MaxScale: 2, ZoomStep: 1.5, FitCoverage: 0.8}}
	l := cfg.Limits()
	assert.Equal(t, 1.0, l.MinScale)
	assert.Equal(t, 2.0, l.MaxScale)
	assert.Equal(t, 1.5, l.ZoomStep)
	assert.Equal(t, 0.8, l.FitCoverage)
}
