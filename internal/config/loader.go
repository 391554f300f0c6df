package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ecli/pkg/types"
)

// Run modes selectable with run_selected.
const (
	ModeRun    = "run"
	ModeServer = "server"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultAddr         = ":8527"
	DefaultLogLevel     = "info"
	DefaultMaxBodyBytes = 8 << 20
)

// Config holds the process-wide settings.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
// ExitAfter is in seconds; 0 runs until interrupted.
type Config struct {
	EnabledTrackers []types.TrackerConfig `json:"enabled_trackers" yaml:"enabled_trackers" toml:"enabled_trackers"`
	ExitAfter       int                   `json:"exit_after" yaml:"exit_after" toml:"exit_after"`
	RunSelected     string                `json:"run_selected" yaml:"run_selected" toml:"run_selected"`
	TrackersDir     string                `json:"trackers_dir" yaml:"trackers_dir" toml:"trackers_dir"`
	LogLevel        string                `json:"log_level" yaml:"log_level" toml:"log_level"`
	Server          ServerConfig          `json:"server" yaml:"server" toml:"server"`
}

// ServerConfig configures the server-mode HTTP frontend.
type ServerConfig struct {
	Addr         string     `json:"addr" yaml:"addr" toml:"addr"`
	MaxBodyBytes int64      `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORS         CORSConfig `json:"cors" yaml:"cors" toml:"cors"`
}

// CORSConfig is opt-in.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.RunSelected == "" {
		c.RunSelected = ModeRun
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Validate rejects settings the lifecycle cannot honor.
func (c Config) Validate() error {
	if c.ExitAfter < 0 {
		return fmt.Errorf("exit_after must be >= 0, got %d", c.ExitAfter)
	}
	switch c.RunSelected {
	case "", ModeRun, ModeServer:
	default:
		return fmt.Errorf("unknown run_selected %q", c.RunSelected)
	}
	return nil
}

// ServerMode reports whether persistent-server mode is selected.
func (c Config) ServerMode() bool { return c.RunSelected == ModeServer }

// ExitAfterDuration returns ExitAfter as a duration.
func (c Config) ExitAfterDuration() time.Duration {
	return time.Duration(c.ExitAfter) * time.Second
}
