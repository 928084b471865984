// Package storage defines the persistence contract for the ingestion
// pipeline. Two backends implement it: sqlite for single-node deployments
// and postgres for shared ones. Uniqueness constraints in the backends are
// the real deduplication guarantee; callers treat lookups as advisory and
// recover from conflicts by re-reading.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vigilhq/vigil/internal/types"
)

// Storage is the interface all persistence backends must implement.
// Get methods return (nil, nil) when no row matches.
type Storage interface {
	// Events
	CreateEvent(ctx context.Context, event *types.Event) error
	GetEventByFingerprint(ctx context.Context, fp string) (*types.Event, error)
	ListRecentEvents(ctx context.Context, limit int) ([]*types.Event, error)

	// Sources
	CreateSource(ctx context.Context, source *types.Source) error
	GetSourceByURL(ctx context.Context, url string) (*types.Source, error)
	ListSourcesByEvent(ctx context.Context, eventID string) ([]*types.Source, error)

	// Monitors
	CreateMonitor(ctx context.Context, monitor *types.Monitor) error
	GetMonitor(ctx context.Context, id string) (*types.Monitor, error)
	ListMonitors(ctx context.Context) ([]*types.Monitor, error)
	ListDueMonitors(ctx context.Context, since time.Time) ([]*types.Monitor, error)
	UpdateMonitorLastRun(ctx context.Context, id string, runAt time.Time) error

	// Maintenance
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// ErrConflict is the sentinel all uniqueness violations match via errors.Is.
var ErrConflict = errors.New("unique constraint conflict")

// ConflictError reports a store-level uniqueness violation. Backends
// translate their driver's native constraint errors into this type so the
// processor can branch on conflicts without knowing which driver is in use.
type ConflictError struct {
	Constraint string // e.g. "events.fingerprint", "sources.url"
	Value      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %q already exists", e.Constraint, e.Value)
}

// Is makes ConflictError match ErrConflict under errors.Is.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsConflict reports whether err is a uniqueness violation from any backend.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Config selects and configures a backend.
type Config struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// DefaultConfig returns a sqlite configuration suitable for local use.
func DefaultConfig() Config {
	return Config{
		Driver: "sqlite",
		Path:   ".vigil/vigil.db",
	}
}

// Validate checks the configuration for the selected driver.
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("sqlite driver requires a database path")
		}
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("postgres driver requires a dsn")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
	return nil
}
