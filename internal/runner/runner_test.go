package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilhq/vigil/internal/ingest"
	"github.com/vigilhq/vigil/internal/search"
	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/storage/sqlite"
	"github.com/vigilhq/vigil/internal/types"
)

// fakeSearcher returns an empty batch per call and records which subjects
// were queried. failSubjects lists subject IDs whose fetch should fail.
type fakeSearcher struct {
	mu           sync.Mutex
	subjects     []string
	failSubjects map[string]bool
	delay        time.Duration

	inFlight    int
	maxInFlight int
}

func (f *fakeSearcher) FetchEvents(_ context.Context, query search.Query, _ time.Time) (*search.Batch, error) {
	f.mu.Lock()
	f.subjects = append(f.subjects, query.SubjectID)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	fail := f.failSubjects[query.SubjectID]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("collaborator unavailable")
	}
	return &search.Batch{}, nil
}

func (f *fakeSearcher) queried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := append([]string(nil), f.subjects...)
	sort.Strings(out)
	return out
}

// fakeIngestor records which monitors were handed a batch
type fakeIngestor struct {
	mu       sync.Mutex
	monitors []string
}

func (f *fakeIngestor) ProcessBatch(_ context.Context, monitor *types.Monitor, batch *search.Batch) (*ingest.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.monitors = append(f.monitors, monitor.ID)
	return &ingest.Outcome{Items: []ingest.ItemResult{}}, nil
}

func (f *fakeIngestor) processed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.monitors)
}

func setupRunner(t *testing.T, cfg *Config) (*Runner, storage.Storage, *fakeSearcher, *fakeIngestor) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "vigil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	searcher := &fakeSearcher{failSubjects: map[string]bool{}}
	ingestor := &fakeIngestor{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := New(store, searcher, ingestor, nil, logger, cfg)
	require.NoError(t, err)
	return r, store, searcher, ingestor
}

func addMonitor(t *testing.T, store storage.Storage, subjectID string) *types.Monitor {
	t.Helper()

	monitor := &types.Monitor{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Subject:   "Subject " + subjectID,
		TopicID:   "topic-energy",
		Topic:     "Energy policy",
	}
	require.NoError(t, store.CreateMonitor(context.Background(), monitor))
	return monitor
}

func TestRunDueSelectsOnlyDueMonitors(t *testing.T) {
	r, store, searcher, ingestor := setupRunner(t, nil)
	ctx := context.Background()

	addMonitor(t, store, "subject-never")
	stale := addMonitor(t, store, "subject-stale")
	fresh := addMonitor(t, store, "subject-fresh")

	require.NoError(t, store.UpdateMonitorLastRun(ctx, stale.ID, time.Now().Add(-2*time.Hour)))
	require.NoError(t, store.UpdateMonitorLastRun(ctx, fresh.ID, time.Now()))

	require.NoError(t, r.RunDue(ctx))

	assert.Equal(t, []string{"subject-never", "subject-stale"}, searcher.queried())
	assert.Equal(t, 2, ingestor.processed())
}

func TestRunAllIgnoresSchedule(t *testing.T) {
	r, store, searcher, ingestor := setupRunner(t, nil)
	ctx := context.Background()

	addMonitor(t, store, "subject-a")
	addMonitor(t, store, "subject-b")
	fresh := addMonitor(t, store, "subject-c")
	require.NoError(t, store.UpdateMonitorLastRun(ctx, fresh.ID, time.Now()))

	require.NoError(t, r.RunAll(ctx))

	assert.Equal(t, []string{"subject-a", "subject-b", "subject-c"}, searcher.queried())
	assert.Equal(t, 3, ingestor.processed())
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = 2
	r, store, searcher, _ := setupRunner(t, cfg)
	searcher.delay = 20 * time.Millisecond

	for i := 0; i < 6; i++ {
		addMonitor(t, store, fmt.Sprintf("subject-%d", i))
	}

	require.NoError(t, r.RunAll(context.Background()))

	assert.Len(t, searcher.queried(), 6)
	assert.LessOrEqual(t, searcher.maxInFlight, 2)
}

func TestRunnerSearchFailureDoesNotStopPass(t *testing.T) {
	r, store, searcher, ingestor := setupRunner(t, nil)

	addMonitor(t, store, "subject-ok")
	addMonitor(t, store, "subject-broken")
	searcher.failSubjects["subject-broken"] = true

	require.NoError(t, r.RunAll(context.Background()))

	// Both were searched; only the healthy one reached ingestion.
	assert.Len(t, searcher.queried(), 2)
	assert.Equal(t, 1, ingestor.processed())
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	r, _, _, _ := setupRunner(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestNewRunnerValidation(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "vigil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	searcher := &fakeSearcher{}
	ingestor := &fakeIngestor{}

	_, err = New(nil, searcher, ingestor, nil, logger, nil)
	assert.Error(t, err)

	_, err = New(store, nil, ingestor, nil, logger, nil)
	assert.Error(t, err)

	_, err = New(store, searcher, nil, nil, logger, nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.Concurrency = 0
	_, err = New(store, searcher, ingestor, nil, logger, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid runner config")
}

func TestRunnerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Interval = 0 },
			wantErr: "interval must be positive",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Concurrency = -1 },
			wantErr: "concurrency must be positive",
		},
		{
			name:    "oversized concurrency",
			mutate:  func(c *Config) { c.Concurrency = 500 },
			wantErr: "concurrency too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
