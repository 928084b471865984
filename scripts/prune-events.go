// scripts/prune-events.go - Manual retention pruning tool
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vigilhq/vigil/internal/config"
	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/storage/sqlite"
)

func main() {
	ctx := context.Background()

	// Use default config to find database
	cfg := storage.DefaultConfig()

	// Allow override via environment variable
	if dbPath := os.Getenv("VIGIL_DB_PATH"); dbPath != "" {
		cfg.Path = dbPath
	}

	retention, err := config.RetentionConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connecting to database: %s\n", cfg.Path)

	store, err := sqlite.New(cfg.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cutoff := time.Now().UTC().AddDate(0, 0, -retention.RetentionDays)

	fmt.Printf("Pruning events older than %s (retention: %d days)...\n",
		cutoff.Format("2006-01-02"), retention.RetentionDays)

	pruned, err := store.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during pruning: %v\n", err)
		os.Exit(1)
	}

	if pruned > 0 {
		fmt.Printf("✓ Pruned %d event(s) and their attached sources\n", pruned)
	} else {
		fmt.Println("✓ No events older than the retention window")
	}
}
