package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/types"
)

// CreateSource inserts a new source row. URLs are unique store-wide, not
// per event: a duplicate URL surfaces as a storage.ConflictError and the
// caller re-reads the existing row instead.
func (s *SQLiteStorage) CreateSource(ctx context.Context, source *types.Source) error {
	if err := source.Validate(); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}

	quotesJSON, err := marshalStrings(source.KeyQuotes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sources (
			id, event_id, url, headline, publisher, published_at,
			source_type, content_fingerprint, key_quotes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		source.ID,
		source.EventID,
		source.URL,
		source.Headline,
		source.Publisher,
		source.PublishedAt,
		source.SourceType,
		source.ContentFingerprint,
		quotesJSON,
		source.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &storage.ConflictError{Constraint: "sources.url", Value: source.URL}
		}
		return fmt.Errorf("failed to create source: %w", err)
	}

	return nil
}

// GetSourceByURL returns the source with the given URL, or (nil, nil) if
// none exists.
func (s *SQLiteStorage) GetSourceByURL(ctx context.Context, url string) (*types.Source, error) {
	query := `
		SELECT id, event_id, url, headline, publisher, published_at,
		       source_type, content_fingerprint, key_quotes, created_at
		FROM sources
		WHERE url = ?
	`

	source, err := scanSource(s.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by url: %w", err)
	}

	return source, nil
}

// ListSourcesByEvent returns all sources citing the given event
func (s *SQLiteStorage) ListSourcesByEvent(ctx context.Context, eventID string) ([]*types.Source, error) {
	query := `
		SELECT id, event_id, url, headline, publisher, published_at,
		       source_type, content_fingerprint, key_quotes, created_at
		FROM sources
		WHERE event_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []*types.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row scanner) (*types.Source, error) {
	source := &types.Source{}
	var quotesJSON string

	err := row.Scan(
		&source.ID,
		&source.EventID,
		&source.URL,
		&source.Headline,
		&source.Publisher,
		&source.PublishedAt,
		&source.SourceType,
		&source.ContentFingerprint,
		&quotesJSON,
		&source.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	source.KeyQuotes, err = unmarshalStrings(quotesJSON)
	if err != nil {
		return nil, err
	}

	return source, nil
}
