// Package config handles loading and validating the broker's
// configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds all broker configuration loaded from broker.json. The
// file is read once at startup; changes require a restart.
type Config struct {
	// ListenAddr is the TCP address the broker listens on for client
	// connections (default ":5672").
	ListenAddr string `json:"listenAddr"`

	// AdminAddr is the HTTP listen address for the admin/health/metrics
	// surface (default ":9090").
	AdminAddr string `json:"adminAddr"`

	// LogBackend selects the event log implementation: "memory" or
	// "postgres".
	LogBackend string `json:"logBackend"`

	// PostgresDSN is the connection string for the postgres backend.
	// Required when LogBackend is "postgres".
	PostgresDSN string `json:"postgresDSN,omitempty"`

	// WorkerCount sizes the shared worker pool used for event log
	// append and replay dispatch (default 8).
	WorkerCount int `json:"workerCount,omitempty"`

	// ReplayDefault is parsed but not read anywhere in this module: the
	// broker's replay behavior is entirely per-connection on the wire,
	// and eventbus-probe takes its replay choice from its -replay flag.
	ReplayDefault bool `json:"replayDefault,omitempty"`
}

// Load reads and parses configuration from the given file path. It
// returns an error if the file cannot be read, parsed, or is missing
// required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5672"
	}
	if cfg.AdminAddr == "" {
		cfg.AdminAddr = ":9090"
	}
	if cfg.LogBackend == "" {
		cfg.LogBackend = "memory"
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 8
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	switch c.LogBackend {
	case "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("config: postgresDSN is required when logBackend is \"postgres\"")
		}
	default:
		return fmt.Errorf("config: unknown logBackend %q", c.LogBackend)
	}
	return nil
}
