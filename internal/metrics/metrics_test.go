package metrics

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilhq/vigil/internal/cost"
	"github.com/vigilhq/vigil/internal/ingest"
	"github.com/vigilhq/vigil/internal/search"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestMetricsIndependentInstances(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()

	a.ObserveBatch(&ingest.Outcome{}, nil, time.Second)

	assert.Contains(t, scrape(t, a), `vigil_batches_total{outcome="ok"} 1`)
	assert.NotContains(t, scrape(t, b), `vigil_batches_total{outcome="ok"} 1`)
}

func TestObserveBatch(t *testing.T) {
	m := New()

	outcome := &ingest.Outcome{
		Created: 1,
		Skipped: 2,
		Items: []ingest.ItemResult{
			{Status: ingest.StatusNew},
			{Status: ingest.StatusExisting},
			{Status: ingest.StatusSkipped, Reason: ingest.SkipInvalidDate},
		},
	}
	m.ObserveBatch(outcome, nil, 250*time.Millisecond)
	m.ObserveBatch(nil, fmt.Errorf("boom"), time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `vigil_batches_total{outcome="ok"} 1`)
	assert.Contains(t, body, `vigil_batches_total{outcome="error"} 1`)
	assert.Contains(t, body, `vigil_items_total{status="new"} 1`)
	assert.Contains(t, body, `vigil_items_total{status="existing"} 1`)
	assert.Contains(t, body, `vigil_items_total{status="skipped"} 1`)
	assert.Contains(t, body, "vigil_batch_duration_seconds_count 2")
}

func TestObserveSearch(t *testing.T) {
	m := New()

	m.ObserveSearch(nil)
	m.ObserveSearch(&search.SchemaError{Violations: []string{"missing events"}})
	m.ObserveSearch(&search.ExhaustedError{Attempts: 3, LastErr: fmt.Errorf("overloaded")})
	m.ObserveSearch(fmt.Errorf("context deadline exceeded"))

	body := scrape(t, m)
	assert.Contains(t, body, `vigil_searches_total{outcome="ok"} 1`)
	assert.Contains(t, body, `vigil_searches_total{outcome="schema_error"} 1`)
	assert.Contains(t, body, `vigil_searches_total{outcome="exhausted"} 1`)
	assert.Contains(t, body, `vigil_searches_total{outcome="error"} 1`)
}

func TestObserveUsage(t *testing.T) {
	m := New()

	m.ObserveUsage(cost.Usage{
		Calls:        4,
		InputTokens:  1200,
		OutputTokens: 300,
		CostUSD:      0.0027,
	})

	body := scrape(t, m)
	assert.Contains(t, body, "vigil_search_calls 4")
	assert.Contains(t, body, `vigil_search_tokens{direction="input"} 1200`)
	assert.Contains(t, body, `vigil_search_tokens{direction="output"} 300`)
	assert.Contains(t, body, "vigil_search_cost_usd 0.0027")
}
