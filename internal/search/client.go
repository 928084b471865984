package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/vigilhq/vigil/internal/cost"
)

// Client runs searches against a Generator with rate limiting, bounded
// concurrency, retry with exponential backoff, and usage tracking.
type Client struct {
	gen     Generator
	cfg     *Config
	tracker *cost.Tracker
	logger  *slog.Logger
	limiter *rate.Limiter
	sem     *semaphore.Weighted

	// sleep is swapped out in tests to observe backoff without waiting
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a search client. A nil cfg uses DefaultConfig, a nil
// tracker gets a fresh one, and a nil logger falls back to slog.Default.
func NewClient(gen Generator, cfg *Config, tracker *cost.Tracker, logger *slog.Logger) (*Client, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}
	if tracker == nil {
		tracker = cost.NewTracker()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		gen:     gen,
		cfg:     cfg,
		tracker: tracker,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RateBurst),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls)),
		sleep:   sleepWithContext,
	}, nil
}

// FetchEvents searches for public events matching the query within the
// configured window, anchored at now. Transient failures (API errors,
// responses that are not valid JSON) are retried with exponential backoff
// up to MaxAttempts. Schema violations are terminal: the response parsed
// but does not mean what it should, and retrying the same prompt is more
// likely to burn tokens than to fix it.
func (c *Client) FetchEvents(ctx context.Context, query Query, now time.Time) (*Batch, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	prompt := buildPrompt(query, now, c.cfg.WindowDays)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * c.cfg.BackoffBase
			c.logger.Warn("search attempt failed, retrying",
				"subject", query.Subject,
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		batch, err := c.attempt(ctx, prompt)
		if err == nil {
			c.logger.Debug("search completed",
				"subject", query.Subject,
				"events", len(batch.Events),
				"attempts", attempt+1)
			return batch, nil
		}

		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return nil, err
		}
		lastErr = err
	}

	return nil, &ExhaustedError{Attempts: c.cfg.MaxAttempts, LastErr: lastErr}
}

// attempt performs one full call: rate limit, concurrency gate, generate,
// record usage, extract the JSON span, parse and validate it.
func (c *Client) attempt(ctx context.Context, prompt string) (*Batch, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("concurrency gate: %w", err)
	}
	defer c.sem.Release(1)

	completion, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	c.tracker.Record(completion.InputTokens, completion.OutputTokens)

	span, err := ExtractJSONObject(completion.Text)
	if err != nil {
		return nil, err
	}

	return parseBatch(span)
}

// EstimateCost returns the estimated dollar cost of a call consuming the
// given total token count.
func (c *Client) EstimateCost(tokens int) float64 {
	return cost.Estimate(tokens)
}

// Usage returns a snapshot of accumulated API usage across all calls
func (c *Client) Usage() cost.Usage {
	return c.tracker.Snapshot()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
