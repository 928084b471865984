package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vigilhq/vigil/internal/cost"
	"github.com/vigilhq/vigil/internal/ingest"
	"github.com/vigilhq/vigil/internal/logger"
	"github.com/vigilhq/vigil/internal/runner"
	"github.com/vigilhq/vigil/internal/search"
)

var (
	runAllMonitors bool
	runMonitorID   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search and ingest events for due monitors once",
	Long: `Run one scheduling pass: fetch candidate events for every due monitor
and persist the new ones. A monitor is due when it has never run or when
its last run is older than the configured interval.

Requires the ANTHROPIC_API_KEY environment variable.

Example:
  vigil run                  # due monitors only
  vigil run --all            # every monitor, regardless of schedule
  vigil run --monitor <id>   # a single monitor (IDs from 'vigil monitor list')`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			fmt.Fprintf(os.Stderr, "Error: ANTHROPIC_API_KEY environment variable is required\n")
			os.Exit(1)
		}

		log := logger.New("vigil", cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		gen, err := search.NewAnthropicGenerator(apiKey, cfg.Search.Model, cfg.Search.MaxTokens)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		tracker := cost.NewTracker()
		client, err := search.NewClient(gen, cfg.Search, tracker, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		proc := ingest.NewProcessor(store, log)
		r, err := runner.New(store, client, proc, nil, log, cfg.Runner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		switch {
		case runMonitorID != "":
			monitor, getErr := store.GetMonitor(ctx, runMonitorID)
			if getErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", getErr)
				os.Exit(1)
			}
			if monitor == nil {
				fmt.Fprintf(os.Stderr, "Error: monitor %q not found\n", runMonitorID)
				os.Exit(1)
			}
			_, err = r.ProcessMonitor(ctx, monitor)
		case runAllMonitors:
			err = r.RunAll(ctx)
		default:
			err = r.RunDue(ctx)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		usage := tracker.Snapshot()

		fmt.Printf("\n%s Run complete\n\n", green("✓"))
		fmt.Printf("  API calls: %d\n", usage.Calls)
		fmt.Printf("  Tokens:    %d in / %d out\n", usage.InputTokens, usage.OutputTokens)
		fmt.Printf("  Est. cost: $%.4f\n", usage.CostUSD)
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runAllMonitors, "all", false, "Run every monitor, not only the due ones")
	runCmd.Flags().StringVar(&runMonitorID, "monitor", "", "Run a single monitor by ID")
}
