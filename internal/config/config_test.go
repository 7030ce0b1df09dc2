package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".backbeat", "config.yaml")
	want := DefaultConfig()
	want.Camera.Device = "/dev/video2"
	want.Scoring.ElbowMin = 70
	want.Scoring.ElbowMax = 110

	require.NoError(t, WriteConfig(path, want))
	got, err := ReadConfig(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestReadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
monitor:
  rate: 10
  check_interval: 2s
scoring:
  check_legs: false
`), 0644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Monitor.Rate)
	assert.Equal(t, 2*time.Second, cfg.Monitor.CheckInterval)
	assert.False(t, cfg.Scoring.CheckLegs)
	assert.Equal(t, 60.0, cfg.Scoring.ElbowMin)
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("monitor: [unclosed"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parsing config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("scoring:\n  min_score: 10\n  max_score: 1\n"), 0644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "min_score")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Negative rate", func(c *Config) { c.Monitor.Rate = -1 }},
		{"Zero check interval", func(c *Config) { c.Monitor.CheckInterval = 0 }},
		{"Missing worker script", func(c *Config) { c.Worker.Script = "" }},
		{"Bad policy", func(c *Config) { c.Scoring.ElbowScale = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}
