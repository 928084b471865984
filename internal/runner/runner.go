// Package runner schedules monitors through the search and ingestion
// pipeline. Each pass lists the monitors that are due, fetches a candidate
// batch for each, and hands the batches to the processor, with a bound on
// how many monitors run in parallel.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vigilhq/vigil/internal/ingest"
	"github.com/vigilhq/vigil/internal/metrics"
	"github.com/vigilhq/vigil/internal/search"
	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/types"
)

// Searcher fetches a candidate batch for a monitor's query
type Searcher interface {
	FetchEvents(ctx context.Context, query search.Query, now time.Time) (*search.Batch, error)
}

// Ingestor persists a fetched batch for a monitor
type Ingestor interface {
	ProcessBatch(ctx context.Context, monitor *types.Monitor, batch *search.Batch) (*ingest.Outcome, error)
}

// Runner drives the pipeline for every monitor on a schedule
type Runner struct {
	store    storage.Storage
	searcher Searcher
	ingestor Ingestor
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      *Config

	// now anchors the search window and the due check; tests pin it
	now func() time.Time
}

// New creates a runner. Metrics may be nil when no exporter is wired; a
// nil cfg uses DefaultConfig and a nil logger falls back to slog.Default.
func New(store storage.Storage, searcher Searcher, ingestor Ingestor, m *metrics.Metrics, logger *slog.Logger, cfg *Config) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if ingestor == nil {
		return nil, fmt.Errorf("ingestor is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runner config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		store:    store,
		searcher: searcher,
		ingestor: ingestor,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// ProcessMonitor runs the full pipeline for one monitor: fetch a candidate
// batch, then persist it. A search failure means no batch is attempted; a
// batch failure still returns the (complete) outcome alongside the error.
func (r *Runner) ProcessMonitor(ctx context.Context, monitor *types.Monitor) (*ingest.Outcome, error) {
	started := time.Now()

	batch, err := r.searcher.FetchEvents(ctx, search.QueryFromMonitor(monitor), r.now())
	if r.metrics != nil {
		r.metrics.ObserveSearch(err)
	}
	if err != nil {
		return nil, fmt.Errorf("search failed for monitor %s: %w", monitor.ID, err)
	}

	outcome, err := r.ingestor.ProcessBatch(ctx, monitor, batch)
	if r.metrics != nil {
		r.metrics.ObserveBatch(outcome, err, time.Since(started))
	}
	if err != nil {
		return outcome, err
	}

	r.logger.Info("monitor processed",
		"monitor", monitor.ID,
		"subject", monitor.Subject,
		"created", outcome.Created,
		"skipped", outcome.Skipped)
	return outcome, nil
}

// RunDue processes every monitor whose last run is missing or older than
// the configured interval.
func (r *Runner) RunDue(ctx context.Context) error {
	since := r.now().Add(-r.cfg.Interval)
	monitors, err := r.store.ListDueMonitors(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to list due monitors: %w", err)
	}
	if len(monitors) == 0 {
		r.logger.Debug("no monitors due")
		return nil
	}
	return r.processAll(ctx, monitors)
}

// RunAll processes every monitor regardless of schedule
func (r *Runner) RunAll(ctx context.Context) error {
	monitors, err := r.store.ListMonitors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list monitors: %w", err)
	}
	return r.processAll(ctx, monitors)
}

// processAll fans monitors out to goroutines bounded by the concurrency
// limit. Per-monitor failures are logged and counted, never fatal to the
// pass; only cancellation stops it early.
func (r *Runner) processAll(ctx context.Context, monitors []*types.Monitor) error {
	sem := semaphore.NewWeighted(int64(r.cfg.Concurrency))
	var wg sync.WaitGroup

	var acquireErr error
	for _, monitor := range monitors {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}

		wg.Add(1)
		go func(m *types.Monitor) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := r.ProcessMonitor(ctx, m); err != nil {
				r.logger.Error("monitor run failed",
					"monitor", m.ID,
					"subject", m.Subject,
					"error", err)
			}
		}(monitor)
	}

	wg.Wait()
	return acquireErr
}

// Run processes due monitors on the configured interval until the context
// is cancelled. The first pass starts immediately.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner started",
		"interval", r.cfg.Interval,
		"concurrency", r.cfg.Concurrency)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := r.RunDue(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("runner stopped")
				return nil
			}
			r.logger.Error("scheduling pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped")
			return nil
		case <-ticker.C:
		}
	}
}
