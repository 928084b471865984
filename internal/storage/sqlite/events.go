package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/types"
)

// CreateEvent inserts a new event row. A duplicate fingerprint surfaces as
// a storage.ConflictError so the processor can treat it as EXISTING.
func (s *SQLiteStorage) CreateEvent(ctx context.Context, event *types.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO events (
			id, subject_id, topic_id, title, summary, event_date, event_type, fingerprint, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.SubjectID,
		event.TopicID,
		event.Title,
		event.Summary,
		event.EventDate,
		event.EventType,
		event.Fingerprint,
		event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &storage.ConflictError{Constraint: "events.fingerprint", Value: event.Fingerprint}
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetEventByFingerprint returns the event with the given fingerprint,
// or (nil, nil) if none exists.
func (s *SQLiteStorage) GetEventByFingerprint(ctx context.Context, fp string) (*types.Event, error) {
	query := `
		SELECT id, subject_id, topic_id, title, summary, event_date, event_type, fingerprint, created_at
		FROM events
		WHERE fingerprint = ?
	`

	event := &types.Event{}
	err := s.db.QueryRowContext(ctx, query, fp).Scan(
		&event.ID,
		&event.SubjectID,
		&event.TopicID,
		&event.Title,
		&event.Summary,
		&event.EventDate,
		&event.EventType,
		&event.Fingerprint,
		&event.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by fingerprint: %w", err)
	}

	return event, nil
}

// ListRecentEvents returns up to limit events, most recent event date first
func (s *SQLiteStorage) ListRecentEvents(ctx context.Context, limit int) ([]*types.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, subject_id, topic_id, title, summary, event_date, event_type, fingerprint, created_at
		FROM events
		ORDER BY event_date DESC, created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var events []*types.Event
	for rows.Next() {
		event := &types.Event{}
		err := rows.Scan(
			&event.ID,
			&event.SubjectID,
			&event.TopicID,
			&event.Title,
			&event.Summary,
			&event.EventDate,
			&event.EventType,
			&event.Fingerprint,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// DeleteEventsBefore removes events whose event date is older than cutoff
// and returns how many rows were deleted. Attached sources go with them
// via ON DELETE CASCADE.
func (s *SQLiteStorage) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE event_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}

	return deleted, nil
}
