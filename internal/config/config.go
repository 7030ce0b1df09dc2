// Package config handles reading and writing ~/.backbeat/config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/andresmejia3/backbeat/internal/monitor"
	"github.com/andresmejia3/backbeat/internal/posture"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Database string         `yaml:"database,omitempty"`
	Camera   CameraConfig   `yaml:"camera"`
	Worker   WorkerConfig   `yaml:"worker"`
	Monitor  monitor.Config `yaml:"monitor"`
	Scoring  posture.Policy `yaml:"scoring"`
}

// CameraConfig selects the capture device.
type CameraConfig struct {
	Device    string `yaml:"device,omitempty"` // empty: platform default
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	FrameRate int    `yaml:"frame_rate"`
}

// WorkerConfig controls the pose estimation process.
type WorkerConfig struct {
	Script  string        `yaml:"script"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout"` // per frame
}

const (
	configDir  = ".backbeat"
	configFile = "config.yaml"
)

// Dir returns the backbeat home directory, ~/.backbeat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// DefaultPath returns ~/.backbeat/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// ReadConfig reads the file at path on top of DefaultConfig, so keys missing
// from the file keep their defaults. Returns an error if the file is not found
// or YAML is malformed.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load is ReadConfig that falls back to DefaultConfig when the file does not exist.
func Load(path string) (*Config, error) {
	cfg, err := ReadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig writes cfg to path, creating the directory if needed.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config populated with the canonical defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Camera: CameraConfig{
			Width:     640,
			Height:    480,
			FrameRate: 30,
		},
		Worker: WorkerConfig{
			Script:  "python/pose_worker.py",
			Timeout: 2 * time.Second,
		},
		Monitor: monitor.DefaultConfig(),
		Scoring: posture.DefaultPolicy(),
	}
}

// Validate checks the settings the detection loop cannot run without.
func (c *Config) Validate() error {
	if c.Monitor.Rate < 0 {
		return fmt.Errorf("monitor.rate must not be negative, got %g", c.Monitor.Rate)
	}
	if c.Monitor.MaxFrameFailures < 0 {
		return fmt.Errorf("monitor.max_frame_failures must not be negative, got %d", c.Monitor.MaxFrameFailures)
	}
	if c.Monitor.CheckInterval <= 0 {
		return fmt.Errorf("monitor.check_interval must be positive, got %s", c.Monitor.CheckInterval)
	}
	if c.Worker.Script == "" {
		return errors.New("worker.script is required")
	}
	if c.Worker.Timeout < 0 {
		return fmt.Errorf("worker.timeout must not be negative, got %s", c.Worker.Timeout)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}
