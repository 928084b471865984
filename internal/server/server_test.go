package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilhq/vigil/internal/fingerprint"
	"github.com/vigilhq/vigil/internal/metrics"
	"github.com/vigilhq/vigil/internal/storage"
	"github.com/vigilhq/vigil/internal/storage/sqlite"
	"github.com/vigilhq/vigil/internal/types"
)

func setupServer(t *testing.T) (*Server, storage.Storage) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "vigil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(DefaultConfig(), store, metrics.New(), logger), store
}

func seedEvent(t *testing.T, store storage.Storage, title string, day time.Time) *types.Event {
	t.Helper()

	event := &types.Event{
		ID:          uuid.NewString(),
		SubjectID:   "subject-jane-doe",
		TopicID:     "topic-energy",
		Title:       title,
		EventDate:   day,
		EventType:   types.EventStatement,
		Fingerprint: fingerprint.Event(title, day, "subject-jane-doe"),
	}
	require.NoError(t, store.CreateEvent(context.Background(), event))
	return event
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestListEvents(t *testing.T) {
	s, store := setupServer(t)

	older := seedEvent(t, store, "Older speech", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC))
	newer := seedEvent(t, store, "Newer speech", time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC))

	rec := get(t, s, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []*types.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 2)
	assert.Equal(t, newer.ID, body.Events[0].ID)
	assert.Equal(t, older.ID, body.Events[1].ID)
}

func TestListEventsLimit(t *testing.T) {
	s, store := setupServer(t)

	for i := 0; i < 3; i++ {
		seedEvent(t, store, "Speech "+uuid.NewString(), time.Date(2026, 8, 19+i, 0, 0, 0, 0, time.UTC))
	}

	rec := get(t, s, "/api/events?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []*types.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Events, 2)
}

func TestEventSources(t *testing.T) {
	s, store := setupServer(t)

	event := seedEvent(t, store, "Sourced speech", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	source := &types.Source{
		ID:                 uuid.NewString(),
		EventID:            event.ID,
		URL:                "https://example.org/coverage",
		Publisher:          "Example News",
		Headline:           "Coverage of the speech",
		PublishedAt:        event.EventDate,
		SourceType:         types.SourceMedia,
		ContentFingerprint: fingerprint.URL("https://example.org/coverage"),
	}
	require.NoError(t, store.CreateSource(context.Background(), source))

	rec := get(t, s, "/api/events/"+event.ID+"/sources")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sources []*types.Source `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sources, 1)
	assert.Equal(t, source.URL, body.Sources[0].URL)

	// Unknown events report no sources rather than an error.
	rec = get(t, s, "/api/events/"+uuid.NewString()+"/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Sources)
}

func TestListMonitors(t *testing.T) {
	s, store := setupServer(t)

	monitor := &types.Monitor{
		ID:        uuid.NewString(),
		SubjectID: "subject-jane-doe",
		Subject:   "Jane Doe",
		TopicID:   "topic-energy",
		Topic:     "Energy policy",
	}
	require.NoError(t, store.CreateMonitor(context.Background(), monitor))

	rec := get(t, s, "/api/monitors")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Monitors []*types.Monitor `json:"monitors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Monitors, 1)
	assert.Equal(t, monitor.ID, body.Monitors[0].ID)
}

func TestMetricsRoute(t *testing.T) {
	s, _ := setupServer(t)

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vigil_batch_duration_seconds")
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 50, clampInt("", 50, 500))
	assert.Equal(t, 50, clampInt("junk", 50, 500))
	assert.Equal(t, 50, clampInt("-3", 50, 500))
	assert.Equal(t, 120, clampInt("120", 50, 500))
	assert.Equal(t, 500, clampInt("9999", 50, 500))
}
