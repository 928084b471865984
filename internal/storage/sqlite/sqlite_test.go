package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/types"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testEvent(fp string) *types.Event {
	return &types.Event{
		ID:          uuid.NewString(),
		SubjectID:   "jane-doe",
		TopicID:     "climate",
		Title:       "PM speaks on climate",
		Summary:     "Remarks at the climate summit",
		EventDate:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		EventType:   types.EventSpeech,
		Fingerprint: fp,
	}
}

func testSource(eventID, url string) *types.Source {
	return &types.Source{
		ID:                 uuid.NewString(),
		EventID:            eventID,
		URL:                url,
		Headline:           "PM speaks on climate",
		Publisher:          "The Daily Chronicle",
		PublishedAt:        time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		SourceType:         types.SourceMedia,
		ContentFingerprint: "cf-" + url,
		KeyQuotes:          []string{"we must act now", "the time is short"},
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	event := testEvent("fp-1")
	require.NoError(t, store.CreateEvent(ctx, event))

	got, err := store.GetEventByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.Title, got.Title)
	assert.Equal(t, types.EventSpeech, got.EventType)
	assert.Equal(t, "2026-08-20", got.EventDate.UTC().Format("2006-01-02"))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetEventByFingerprintMissing(t *testing.T) {
	store := setupTestStorage(t)

	got, err := store.GetEventByFingerprint(context.Background(), "no-such-fp")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateEventDuplicateFingerprint(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateEvent(ctx, testEvent("fp-dup")))

	err := store.CreateEvent(ctx, testEvent("fp-dup"))
	require.Error(t, err)
	assert.True(t, storage.IsConflict(err))

	var conflict *storage.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "events.fingerprint", conflict.Constraint)
	assert.Equal(t, "fp-dup", conflict.Value)
}

func TestCreateEventValidates(t *testing.T) {
	store := setupTestStorage(t)

	bad := testEvent("fp-x")
	bad.Title = ""
	err := store.CreateEvent(context.Background(), bad)
	assert.ErrorContains(t, err, "invalid event")
}

func TestListRecentEvents(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	for i, fp := range []string{"fp-a", "fp-b", "fp-c"} {
		event := testEvent(fp)
		event.EventDate = time.Date(2026, 8, 18+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.CreateEvent(ctx, event))
	}

	events, err := store.ListRecentEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "fp-c", events[0].Fingerprint)
	assert.Equal(t, "fp-b", events[1].Fingerprint)
}

func TestCreateSourceDuplicateURL(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	event := testEvent("fp-1")
	require.NoError(t, store.CreateEvent(ctx, event))
	require.NoError(t, store.CreateSource(ctx, testSource(event.ID, "https://example.org/story")))

	other := testEvent("fp-2")
	require.NoError(t, store.CreateEvent(ctx, other))

	err := store.CreateSource(ctx, testSource(other.ID, "https://example.org/story"))
	require.Error(t, err)
	assert.True(t, storage.IsConflict(err))

	var conflict *storage.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "sources.url", conflict.Constraint)
	assert.Equal(t, "https://example.org/story", conflict.Value)
}

func TestGetSourceByURL(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	event := testEvent("fp-1")
	require.NoError(t, store.CreateEvent(ctx, event))

	source := testSource(event.ID, "https://example.org/story")
	require.NoError(t, store.CreateSource(ctx, source))

	got, err := store.GetSourceByURL(ctx, "https://example.org/story")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, source.ID, got.ID)
	assert.Equal(t, event.ID, got.EventID)
	assert.Equal(t, []string{"we must act now", "the time is short"}, got.KeyQuotes)

	missing, err := store.GetSourceByURL(ctx, "https://example.org/nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListSourcesByEvent(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	event := testEvent("fp-1")
	require.NoError(t, store.CreateEvent(ctx, event))
	require.NoError(t, store.CreateSource(ctx, testSource(event.ID, "https://example.org/a")))
	require.NoError(t, store.CreateSource(ctx, testSource(event.ID, "https://example.org/b")))

	sources, err := store.ListSourcesByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, sources, 2)

	none, err := store.ListSourcesByEvent(ctx, "no-such-event")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMonitorLifecycle(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	monitor := &types.Monitor{
		ID:        uuid.NewString(),
		SubjectID: "jane-doe",
		Subject:   "Jane Doe",
		Aliases:   []string{"J. Doe", "The PM"},
		TopicID:   "climate",
		Topic:     "Climate policy",
		Keywords:  []string{"emissions", "net zero"},
	}
	require.NoError(t, store.CreateMonitor(ctx, monitor))

	got, err := store.GetMonitor(ctx, monitor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"J. Doe", "The PM"}, got.Aliases)
	assert.Equal(t, []string{"emissions", "net zero"}, got.Keywords)
	assert.Nil(t, got.LastRunAt)

	runAt := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateMonitorLastRun(ctx, monitor.ID, runAt))

	got, err = store.GetMonitor(ctx, monitor.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.WithinDuration(t, runAt, *got.LastRunAt, time.Second)

	missing, err := store.GetMonitor(ctx, "no-such-monitor")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = store.UpdateMonitorLastRun(ctx, "no-such-monitor", runAt)
	assert.ErrorContains(t, err, "monitor not found")
}

func TestListDueMonitors(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	neverRun := &types.Monitor{ID: uuid.NewString(), SubjectID: "a", Subject: "A", TopicID: "t", Topic: "T"}
	recent := &types.Monitor{ID: uuid.NewString(), SubjectID: "b", Subject: "B", TopicID: "t", Topic: "T"}
	stale := &types.Monitor{ID: uuid.NewString(), SubjectID: "c", Subject: "C", TopicID: "t", Topic: "T"}

	for _, m := range []*types.Monitor{neverRun, recent, stale} {
		require.NoError(t, store.CreateMonitor(ctx, m))
	}
	require.NoError(t, store.UpdateMonitorLastRun(ctx, recent.ID, now))
	require.NoError(t, store.UpdateMonitorLastRun(ctx, stale.ID, now.Add(-2*time.Hour)))

	due, err := store.ListDueMonitors(ctx, now.Add(-time.Hour))
	require.NoError(t, err)

	ids := make([]string, 0, len(due))
	for _, m := range due {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, neverRun.ID)
	assert.Contains(t, ids, stale.ID)
	assert.NotContains(t, ids, recent.ID)
}

func TestListMonitors(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	monitors, err := store.ListMonitors(ctx)
	require.NoError(t, err)
	assert.Empty(t, monitors)

	m := &types.Monitor{ID: uuid.NewString(), SubjectID: "a", Subject: "A", TopicID: "t", Topic: "T"}
	require.NoError(t, store.CreateMonitor(ctx, m))

	monitors, err = store.ListMonitors(ctx)
	require.NoError(t, err)
	assert.Len(t, monitors, 1)
}

func TestDeleteEventsBefore(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	old := testEvent("fp-old")
	old.EventDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateEvent(ctx, old))
	require.NoError(t, store.CreateSource(ctx, testSource(old.ID, "https://example.org/old")))

	fresh := testEvent("fp-fresh")
	fresh.EventDate = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateEvent(ctx, fresh))
	require.NoError(t, store.CreateSource(ctx, testSource(fresh.ID, "https://example.org/fresh")))

	deleted, err := store.DeleteEventsBefore(ctx, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := store.GetEventByFingerprint(ctx, "fp-old")
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Cascade removes the old event's sources but keeps the fresh one's.
	orphaned, err := store.GetSourceByURL(ctx, "https://example.org/old")
	require.NoError(t, err)
	assert.Nil(t, orphaned)

	kept, err := store.GetSourceByURL(ctx, "https://example.org/fresh")
	require.NoError(t, err)
	require.NotNil(t, kept)

	// Nothing left to prune on a second pass.
	deleted, err = store.DeleteEventsBefore(ctx, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
