package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigilhq/vigil/internal/cost"
	"github.com/vigilhq/vigil/internal/ingest"
	"github.com/vigilhq/vigil/internal/logger"
	"github.com/vigilhq/vigil/internal/metrics"
	"github.com/vigilhq/vigil/internal/runner"
	"github.com/vigilhq/vigil/internal/search"
	"github.com/vigilhq/vigil/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and HTTP API until interrupted",
	Long: `Run vigil as a long-lived service: monitors are searched on the
configured interval, and the HTTP API serves recent events, sources,
monitors, a health check, and Prometheus metrics.

Requires the ANTHROPIC_API_KEY environment variable.`,
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
		m := metrics.New()

		client, err := search.NewClient(gen, cfg.Search, tracker, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		proc := ingest.NewProcessor(store, log)
		r, err := runner.New(store, client, proc, m, log, cfg.Runner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		srv := server.New(cfg.Server, store, m, log)

		go func() {
			if err := srv.Start(); err != nil {
				log.Error("http server failed", "error", err)
				stop()
			}
		}()

		// Keep the usage gauges fresh while the runner works.
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					m.ObserveUsage(tracker.Snapshot())
				}
			}
		}()

		runnerDone := make(chan error, 1)
		go func() { runnerDone <- r.Run(ctx) }()

		<-ctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", "error", err)
		}
		<-runnerDone
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
