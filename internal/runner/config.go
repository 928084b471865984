package runner

import (
	"fmt"
	"time"
)

// Config holds configuration for the monitor runner
type Config struct {
	// Interval between scheduling passes. A monitor is due when it has
	// never run or its last run is older than this.
	// Default: 15m
	Interval time.Duration `yaml:"interval"`

	// Concurrency bounds how many monitors one pass processes in parallel
	// Default: 4
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the default runner configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:    15 * time.Minute,
		Concurrency: 4,
	}
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive (got %v)", c.Interval)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive (got %d)", c.Concurrency)
	}
	if c.Concurrency > 64 {
		return fmt.Errorf("concurrency too large (got %d, max 64)", c.Concurrency)
	}
	return nil
}
