package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/types"
)

// CreateSource inserts a new source row. A duplicate URL surfaces as a
// storage.ConflictError; the first citing event keeps the row.
func (s *PostgresStorage) CreateSource(ctx context.Context, source *types.Source) error {
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
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
func (s *PostgresStorage) GetSourceByURL(ctx context.Context, url string) (*types.Source, error) {
	query := `
		SELECT id, event_id, url, headline, publisher, published_at,
		       source_type, content_fingerprint, key_quotes, created_at
		FROM sources
		WHERE url = $1
	`

	source, err := scanSource(s.pool.QueryRow(ctx, query, url))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by url: %w", err)
	}

	return source, nil
}

// ListSourcesByEvent returns all sources citing the given event
func (s *PostgresStorage) ListSourcesByEvent(ctx context.Context, eventID string) ([]*types.Source, error) {
	query := `
		SELECT id, event_id, url, headline, publisher, published_at,
		       source_type, content_fingerprint, key_quotes, created_at
		FROM sources
		WHERE event_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, eventID)
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

// scanner covers both pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
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
