// Package ingest turns validated candidate batches into persisted events
// and sources, deduplicating by fingerprint. Per-item failures never abort
// a batch: each candidate lands in exactly one of NEW, EXISTING, or
// SKIPPED, and the monitor's last-run marker advances once per batch
// regardless of how many items failed.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vigilhq/vigil/internal/classify"
	"github.com/vigilhq/vigil/internal/fingerprint"
	"github.com/vigilhq/vigil/internal/search"
	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/types"
)

// Processor persists candidate events for a monitor
type Processor struct {
	store  storage.Storage
	logger *slog.Logger

	// now is swapped out in tests to pin the last-run timestamp
	now func() time.Time
}

// NewProcessor creates a processor backed by the given store. A nil logger
// falls back to slog.Default.
func NewProcessor(store storage.Storage, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ProcessBatch persists each candidate in input order and returns the
// per-item outcomes. Candidates are processed strictly sequentially so an
// event created early in the batch is visible to the duplicate check of a
// later item.
//
// Per-item failures are recorded in the outcome and never returned as an
// error. The only error ProcessBatch returns is a failure of the final
// monitor last-run update, and even then the returned outcome is complete
// and valid.
func (p *Processor) ProcessBatch(ctx context.Context, monitor *types.Monitor, batch *search.Batch) (*Outcome, error) {
	if monitor == nil {
		return nil, fmt.Errorf("monitor is required")
	}
	if batch == nil {
		batch = &search.Batch{}
	}

	outcome := &Outcome{Items: make([]ItemResult, 0, len(batch.Events))}
	for _, candidate := range batch.Events {
		item := p.processCandidate(ctx, monitor, candidate)
		if item.Status == StatusNew {
			outcome.Created++
		} else {
			outcome.Skipped++
		}
		outcome.Items = append(outcome.Items, item)
	}

	p.logger.Info("processed batch",
		"monitor", monitor.ID,
		"candidates", len(batch.Events),
		"created", outcome.Created,
		"skipped", outcome.Skipped)

	// The marker advances even when every item failed, so a persistently
	// broken monitor is not re-searched forever on the same stale window.
	if err := p.store.UpdateMonitorLastRun(ctx, monitor.ID, p.now()); err != nil {
		return outcome, fmt.Errorf("failed to update monitor last run: %w", err)
	}

	return outcome, nil
}

// processCandidate runs one candidate through parse, dedup, and persist.
// Every return path yields a settled item; nothing here aborts the batch.
func (p *Processor) processCandidate(ctx context.Context, monitor *types.Monitor, candidate search.CandidateEvent) ItemResult {
	parsed, err := fingerprint.ParseDate(candidate.EventDate)
	if err != nil {
		p.logger.Warn("skipping candidate with invalid date",
			"monitor", monitor.ID,
			"title", candidate.Title,
			"eventDate", candidate.EventDate)
		return ItemResult{Status: StatusSkipped, Reason: SkipInvalidDate, Err: err}
	}

	fp := fingerprint.Event(candidate.Title, parsed, monitor.SubjectID)

	existing, err := p.store.GetEventByFingerprint(ctx, fp)
	if err != nil {
		p.logger.Error("fingerprint lookup failed",
			"monitor", monitor.ID,
			"fingerprint", fp,
			"error", err)
		return ItemResult{Status: StatusSkipped, Reason: SkipPersistenceError, Err: err}
	}
	if existing != nil {
		return ItemResult{Status: StatusExisting, Event: existing}
	}

	event := &types.Event{
		ID:          uuid.NewString(),
		SubjectID:   monitor.SubjectID,
		TopicID:     monitor.TopicID,
		Title:       candidate.Title,
		Summary:     candidate.Summary,
		EventDate:   fingerprint.Day(parsed),
		EventType:   classify.ForTitle(candidate.Title),
		Fingerprint: fp,
	}

	if err := p.store.CreateEvent(ctx, event); err != nil {
		if storage.IsConflict(err) {
			// Another writer created the same fingerprint between the
			// lookup and the insert. The constraint, not the lookup, is
			// the dedup guarantee; recover by re-reading.
			return p.recoverExistingEvent(ctx, monitor, fp, err)
		}
		p.logger.Error("failed to create event",
			"monitor", monitor.ID,
			"title", candidate.Title,
			"error", err)
		return ItemResult{Status: StatusSkipped, Reason: SkipPersistenceError, Err: err}
	}

	for _, src := range candidate.Sources {
		if err := p.attachSource(ctx, event, candidate.Quotes, src); err != nil {
			p.logger.Error("failed to create source",
				"monitor", monitor.ID,
				"event", event.ID,
				"url", src.URL,
				"error", err)
			return ItemResult{Status: StatusSkipped, Reason: SkipPersistenceError, Err: err}
		}
	}

	return ItemResult{Status: StatusNew, Event: event}
}

// recoverExistingEvent re-reads the event that won the insert race
func (p *Processor) recoverExistingEvent(ctx context.Context, monitor *types.Monitor, fp string, conflict error) ItemResult {
	existing, err := p.store.GetEventByFingerprint(ctx, fp)
	if err != nil || existing == nil {
		p.logger.Error("conflict recovery re-read failed",
			"monitor", monitor.ID,
			"fingerprint", fp,
			"error", err)
		return ItemResult{Status: StatusSkipped, Reason: SkipPersistenceError, Err: conflict}
	}
	return ItemResult{Status: StatusExisting, Event: existing}
}

// attachSource persists one citation for a newly created event. A URL
// conflict means some event already cites this URL, possibly earlier in
// this same batch; the existing row is reused rather than failing the
// event. Any other store error fails the event's creation.
func (p *Processor) attachSource(ctx context.Context, event *types.Event, quotes []string, src search.CandidateSource) error {
	source := &types.Source{
		ID:                 uuid.NewString(),
		EventID:            event.ID,
		URL:                src.URL,
		Headline:           src.Headline,
		Publisher:          src.Publisher,
		PublishedAt:        event.EventDate,
		SourceType:         classify.ForPublisher(src.Publisher),
		ContentFingerprint: fingerprint.URL(src.URL),
		KeyQuotes:          quotes,
	}

	err := p.store.CreateSource(ctx, source)
	if err == nil {
		return nil
	}
	if !storage.IsConflict(err) {
		return err
	}

	existing, readErr := p.store.GetSourceByURL(ctx, src.URL)
	if readErr != nil {
		return readErr
	}
	if existing == nil {
		return err
	}

	p.logger.Debug("reusing existing source",
		"event", event.ID,
		"url", src.URL,
		"source", existing.ID)
	return nil
}
