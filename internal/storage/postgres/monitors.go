package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vigilhq/vigil/internal/types"
)

// CreateMonitor inserts a new monitor row
func (s *PostgresStorage) CreateMonitor(ctx context.Context, monitor *types.Monitor) error {
	if err := monitor.Validate(); err != nil {
		return fmt.Errorf("invalid monitor: %w", err)
	}
	if monitor.CreatedAt.IsZero() {
		monitor.CreatedAt = time.Now().UTC()
	}

	aliasesJSON, err := marshalStrings(monitor.Aliases)
	if err != nil {
		return err
	}
	keywordsJSON, err := marshalStrings(monitor.Keywords)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO monitors (
			id, subject_id, subject, aliases, topic_id, topic, keywords, last_run_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		monitor.ID,
		monitor.SubjectID,
		monitor.Subject,
		aliasesJSON,
		monitor.TopicID,
		monitor.Topic,
		keywordsJSON,
		monitor.LastRunAt,
		monitor.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	return nil
}

// GetMonitor returns the monitor with the given id, or (nil, nil) if none exists
func (s *PostgresStorage) GetMonitor(ctx context.Context, id string) (*types.Monitor, error) {
	query := monitorSelect + ` WHERE id = $1`

	monitor, err := scanMonitor(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monitor: %w", err)
	}

	return monitor, nil
}

// ListMonitors returns all monitors, oldest first
func (s *PostgresStorage) ListMonitors(ctx context.Context) ([]*types.Monitor, error) {
	query := monitorSelect + ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitors: %w", err)
	}
	defer rows.Close()

	return collectMonitors(rows)
}

// ListDueMonitors returns monitors that have never run or last ran before
// the given cutoff
func (s *PostgresStorage) ListDueMonitors(ctx context.Context, since time.Time) ([]*types.Monitor, error) {
	query := monitorSelect + `
		WHERE last_run_at IS NULL OR last_run_at < $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query due monitors: %w", err)
	}
	defer rows.Close()

	return collectMonitors(rows)
}

// UpdateMonitorLastRun overwrites the monitor's last-run marker
func (s *PostgresStorage) UpdateMonitorLastRun(ctx context.Context, id string, runAt time.Time) error {
	query := `
		UPDATE monitors
		SET last_run_at = $1
		WHERE id = $2
	`

	tag, err := s.pool.Exec(ctx, query, runAt, id)
	if err != nil {
		return fmt.Errorf("failed to update monitor last run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monitor not found: %s", id)
	}

	return nil
}

const monitorSelect = `
	SELECT id, subject_id, subject, aliases, topic_id, topic, keywords, last_run_at, created_at
	FROM monitors
`

func scanMonitor(row scanner) (*types.Monitor, error) {
	monitor := &types.Monitor{}
	var aliasesJSON, keywordsJSON string
	var lastRun *time.Time

	err := row.Scan(
		&monitor.ID,
		&monitor.SubjectID,
		&monitor.Subject,
		&aliasesJSON,
		&monitor.TopicID,
		&monitor.Topic,
		&keywordsJSON,
		&lastRun,
		&monitor.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	monitor.LastRunAt = lastRun
	if monitor.Aliases, err = unmarshalStrings(aliasesJSON); err != nil {
		return nil, err
	}
	if monitor.Keywords, err = unmarshalStrings(keywordsJSON); err != nil {
		return nil, err
	}

	return monitor, nil
}

func collectMonitors(rows pgx.Rows) ([]*types.Monitor, error) {
	var monitors []*types.Monitor
	for rows.Next() {
		monitor, err := scanMonitor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monitor: %w", err)
		}
		monitors = append(monitors, monitor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monitors: %w", err)
	}

	return monitors, nil
}
