package config

import (
	"fmt"
	"os"
	"strconv"
)

// RetentionConfig holds configuration for event retention and pruning
type RetentionConfig struct {
	// RetentionDays is the retention period for recorded events (in days)
	// Events whose event date is older than this are eligible for deletion,
	// along with their attached sources
	// Default: 90, Range: 1-730
	RetentionDays int
}

// DefaultRetentionConfig returns the default retention configuration
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays: 90,
	}
}

// Validate checks if the configuration has valid values
func (c RetentionConfig) Validate() error {
	if c.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be at least 1 (got %d)", c.RetentionDays)
	}
	if c.RetentionDays > 730 {
		return fmt.Errorf("retention_days too large (got %d, max 730)", c.RetentionDays)
	}
	return nil
}

// RetentionConfigFromEnv creates a RetentionConfig from environment
// variables, falling back to defaults
//
// Environment variables:
//   - VIGIL_RETENTION_DAYS: Retention period for events in days (default: 90)
//
// Returns an error if any environment variable has an invalid value.
func RetentionConfigFromEnv() (RetentionConfig, error) {
	cfg := DefaultRetentionConfig()

	if err := parseEnvInt("VIGIL_RETENTION_DAYS", &cfg.RetentionDays); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid retention configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
