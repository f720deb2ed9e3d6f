// Package config provides the bulkpilot configuration file.
// Credentials are never stored here; the token comes from the environment
// or the gh CLI at runtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds user-tunable settings
type Config struct {
	Paths Paths `toml:"paths"`
	Retry Retry `toml:"retry"`
	Batch Batch `toml:"batch"`
	Log   Log   `toml:"log"`
}

// Paths configures where scratch clones live
type Paths struct {
	// ScratchDir is where fallback clones are created; each operation gets
	// its own subdirectory which is removed afterwards
	ScratchDir string `toml:"scratch_dir"`
}

// Retry configures rate-limit backoff at the adapter layer
type Retry struct {
	MaxAttempts int `toml:"max_attempts"`
	// InitialBackoffMillis is the first retry delay in milliseconds
	InitialBackoffMillis int `toml:"initial_backoff_ms"`
}

// InitialBackoff returns the first retry delay as a duration
func (r Retry) InitialBackoff() time.Duration {
	return time.Duration(r.InitialBackoffMillis) * time.Millisecond
}

// Batch configures orchestrator execution
type Batch struct {
	// Workers > 1 enables bounded concurrent execution across items.
	// Results are reported in submission order either way.
	Workers int `toml:"workers"`
}

// Log configures optional file logging
type Log struct {
	File string `toml:"file"`
}

// DefaultConfig returns the defaults used when no config file exists
func DefaultConfig() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return &Config{
		Paths: Paths{
			ScratchDir: filepath.Join(cacheDir, "bulkpilot", "scratch"),
		},
		Retry: Retry{
			MaxAttempts:          3,
			InitialBackoffMillis: 500,
		},
		Batch: Batch{
			Workers: 1,
		},
	}
}

func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "bulkpilot.toml"), nil
}

// Load reads the config file, falling back to defaults when it is absent
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from an explicit path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to an explicit path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// normalize clamps settings to usable values
func (c *Config) normalize() {
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.InitialBackoffMillis <= 0 {
		c.Retry.InitialBackoffMillis = 500
	}
	if c.Batch.Workers < 1 {
		c.Batch.Workers = 1
	}
	if c.Paths.ScratchDir == "" {
		c.Paths.ScratchDir = DefaultConfig().Paths.ScratchDir
	}
}
