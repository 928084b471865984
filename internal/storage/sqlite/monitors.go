package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vigilhq/vigil/internal/types"
)

// CreateMonitor inserts a new monitor row
func (s *SQLiteStorage) CreateMonitor(ctx context.Context, monitor *types.Monitor) error {
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
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
func (s *SQLiteStorage) GetMonitor(ctx context.Context, id string) (*types.Monitor, error) {
	query := monitorSelect + ` WHERE id = ?`

	monitor, err := scanMonitor(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monitor: %w", err)
	}

	return monitor, nil
}

// ListMonitors returns all monitors, oldest first
func (s *SQLiteStorage) ListMonitors(ctx context.Context) ([]*types.Monitor, error) {
	query := monitorSelect + ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitors: %w", err)
	}
	defer rows.Close()

	return collectMonitors(rows)
}

// ListDueMonitors returns monitors that have never run or last ran before
// the given cutoff
func (s *SQLiteStorage) ListDueMonitors(ctx context.Context, since time.Time) ([]*types.Monitor, error) {
	query := monitorSelect + `
		WHERE last_run_at IS NULL OR last_run_at < ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query due monitors: %w", err)
	}
	defer rows.Close()

	return collectMonitors(rows)
}

// UpdateMonitorLastRun overwrites the monitor's last-run marker. The
// processor calls this exactly once per batch, whatever the item outcomes.
func (s *SQLiteStorage) UpdateMonitorLastRun(ctx context.Context, id string, runAt time.Time) error {
	query := `
		UPDATE monitors
		SET last_run_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, runAt, id)
	if err != nil {
		return fmt.Errorf("failed to update monitor last run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
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
	var lastRun sql.NullTime

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

	if lastRun.Valid {
		t := lastRun.Time
		monitor.LastRunAt = &t
	}
	if monitor.Aliases, err = unmarshalStrings(aliasesJSON); err != nil {
		return nil, err
	}
	if monitor.Keywords, err = unmarshalStrings(keywordsJSON); err != nil {
		return nil, err
	}

	return monitor, nil
}

func collectMonitors(rows *sql.Rows) ([]*types.Monitor, error) {
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
