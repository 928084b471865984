package search

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the search client
type Config struct {
	// Model is the collaborator model identifier
	// Default: claude-sonnet-4-5
	Model string `yaml:"model"`

	// MaxTokens is the response token budget per call
	// Default: 4096
	MaxTokens int `yaml:"max_tokens"`

	// WindowDays constrains the prompt to events from the last N calendar days
	// Default: 2
	WindowDays int `yaml:"window_days"`

	// MaxAttempts is the total number of collaborator calls per fetch,
	// including the first
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBase scales the exponential backoff between attempts: before
	// attempt N the client sleeps BackoffBase * 2^(N-2), so with the 1s
	// default the sleeps are 1s then 2s
	// Default: 1s
	BackoffBase time.Duration `yaml:"backoff_base"`

	// RequestsPerSecond rate-limits collaborator calls across goroutines
	// Default: 1.0
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// RateBurst is the rate limiter's burst allowance
	// Default: 2
	RateBurst int `yaml:"rate_burst"`

	// MaxConcurrentCalls bounds in-flight collaborator calls
	// Default: 4
	MaxConcurrentCalls int `yaml:"max_concurrent_calls"`
}

// DefaultConfig returns the default search client configuration
func DefaultConfig() *Config {
	return &Config{
		Model:              "claude-sonnet-4-5",
		MaxTokens:          4096,
		WindowDays:         2,
		MaxAttempts:        3,
		BackoffBase:        time.Second,
		RequestsPerSecond:  1.0,
		RateBurst:          2,
		MaxConcurrentCalls: 4,
	}
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive (got %d)", c.MaxTokens)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive (got %d)", c.WindowDays)
	}
	if c.WindowDays > 30 {
		return fmt.Errorf("window_days too large (got %d, max 30)", c.WindowDays)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive (got %d)", c.MaxAttempts)
	}
	if c.MaxAttempts > 10 {
		return fmt.Errorf("max_attempts too large (got %d, max 10)", c.MaxAttempts)
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("backoff_base must be positive (got %v)", c.BackoffBase)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive (got %v)", c.RequestsPerSecond)
	}
	if c.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive (got %d)", c.RateBurst)
	}
	if c.MaxConcurrentCalls <= 0 {
		return fmt.Errorf("max_concurrent_calls must be positive (got %d)", c.MaxConcurrentCalls)
	}
	return nil
}

// ConfigFromEnv creates a Config from environment variables, falling back
// to defaults
//
// Environment variables:
//   - VIGIL_SEARCH_MODEL: collaborator model identifier
//   - VIGIL_SEARCH_MAX_TOKENS: response token budget per call
//   - VIGIL_SEARCH_WINDOW_DAYS: event lookback window in days
//   - VIGIL_SEARCH_MAX_ATTEMPTS: total attempts per fetch
//   - VIGIL_SEARCH_BACKOFF_SECS: base backoff in seconds
//   - VIGIL_SEARCH_RPS: requests per second
//   - VIGIL_SEARCH_MAX_CONCURRENT: in-flight call bound
func ConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	if model := os.Getenv("VIGIL_SEARCH_MODEL"); model != "" {
		cfg.Model = model
	}
	if err := parseEnvInt("VIGIL_SEARCH_MAX_TOKENS", &cfg.MaxTokens); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("VIGIL_SEARCH_WINDOW_DAYS", &cfg.WindowDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("VIGIL_SEARCH_MAX_ATTEMPTS", &cfg.MaxAttempts); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("VIGIL_SEARCH_BACKOFF_SECS", &cfg.BackoffBase, time.Second); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("VIGIL_SEARCH_RPS", &cfg.RequestsPerSecond); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("VIGIL_SEARCH_MAX_CONCURRENT", &cfg.MaxConcurrentCalls); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
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

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable
// The multiplier converts the numeric value to a duration
// (e.g., for seconds: multiplier = time.Second)
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
