// Package daemon manages the timecard service lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all service configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Identity  IdentityConfig  `toml:"identity"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig controls the SQLite store location.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// IdentityConfig names the user CLI commands act as. The HTTP API
// resolves its actor per request instead.
type IdentityConfig struct {
	User string `toml:"user"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	home := timecardHome()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8990,
		},
		Storage: StorageConfig{
			Dir: home,
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
	}
}

// LoadConfig reads config from ~/.timecard/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(timecardHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = timecardHome()
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.timecard/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(timecardHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// timecardHome returns the timecard data directory.
func timecardHome() string {
	if env := os.Getenv("TIMECARD_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".timecard")
}

// TimecardHome is exported for use by other packages.
func TimecardHome() string {
	return timecardHome()
}
