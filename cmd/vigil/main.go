package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vigilhq/vigil/internal/config"
	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/storage/postgres"
	"github.com/vigilhq/vigil/internal/storage/sqlite"
)

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Track public statements by the people you follow",
	Long: `Vigil pairs subjects with topics (monitors), asks a search collaborator
for recent public events on each pair, and stores what it finds,
deduplicated by content fingerprint and backed by cited sources.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, or error")
}

// configPath returns the explicit --config value, or the workspace config
// if one exists.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	workspace := filepath.Join(".vigil", "config.yaml")
	if _, err := os.Stat(workspace); err == nil {
		return workspace
	}
	return ""
}

// loadConfig layers defaults, the optional YAML file, environment
// variables, and command-line flags, in that order.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if flagDB != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = flagDB
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the backend the configuration selects
func openStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return sqlite.New(cfg.Database.Path)
	case "postgres":
		return postgres.New(ctx, cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Database.Driver)
	}
}
