// Package config assembles the application configuration: defaults,
// overridden by an optional YAML file, overridden by environment
// variables. Secrets (the Anthropic API key) are never read from the
// file; commands take them from the environment directly.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vigilhq/vigil/internal/runner"
	"github.com/vigilhq/vigil/internal/search"
	"github.com/vigilhq/vigil/internal/server"
	"github.com/vigilhq/vigil/internal/storage"
)

// Config is the full application configuration
type Config struct {
	// LogLevel is one of debug, info, warn, error
	// Default: info
	LogLevel string `yaml:"log_level"`

	Database storage.Config `yaml:"database"`
	Search   *search.Config `yaml:"search"`
	Runner   *runner.Config `yaml:"runner"`
	Server   server.Config  `yaml:"server"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Database: storage.DefaultConfig(),
		Search:   search.DefaultConfig(),
		Runner:   runner.DefaultConfig(),
		Server:   server.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// yields the defaults unchanged; a path that cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays the quick-override environment variables:
//
//   - VIGIL_LOG_LEVEL
//   - VIGIL_DB_DRIVER, VIGIL_DB_PATH, VIGIL_DB_DSN
//   - VIGIL_SERVER_ADDR
func (c *Config) ApplyEnv() {
	if v := os.Getenv("VIGIL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("VIGIL_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("VIGIL_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("VIGIL_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("VIGIL_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Runner.Validate(); err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
