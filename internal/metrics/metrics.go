// Package metrics exposes pipeline counters in Prometheus exposition
// format. Collectors live on a private registry so each constructed
// instance is independent.
package metrics

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vigilhq/vigil/internal/cost"
	"github.com/vigilhq/vigil/internal/ingest"
	"github.com/vigilhq/vigil/internal/search"
)

// Metrics holds the pipeline's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	batchesTotal  *prometheus.CounterVec
	itemsTotal    *prometheus.CounterVec
	searchesTotal *prometheus.CounterVec
	batchDur      prometheus.Summary

	searchCalls  prometheus.Gauge
	searchTokens *prometheus.GaugeVec
	searchCost   prometheus.Gauge
}

// New creates and registers the pipeline collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.batchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "batches_total",
		Help:      "Number of processed batches by outcome",
	}, []string{"outcome"})
	m.itemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "items_total",
		Help:      "Number of batch items by final status",
	}, []string{"status"})
	m.searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "searches_total",
		Help:      "Number of collaborator fetches by outcome",
	}, []string{"outcome"})
	m.batchDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "vigil",
		Name:      "batch_duration_seconds",
		Help:      "Time spent processing one batch",
	})
	m.searchCalls = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vigil",
		Name:      "search_calls",
		Help:      "Collaborator API calls made since startup",
	})
	m.searchTokens = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vigil",
		Name:      "search_tokens",
		Help:      "Collaborator tokens consumed since startup",
	}, []string{"direction"})
	m.searchCost = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vigil",
		Name:      "search_cost_usd",
		Help:      "Estimated collaborator spend in USD since startup",
	})

	m.registry.MustRegister(
		m.batchesTotal, m.itemsTotal, m.searchesTotal, m.batchDur,
		m.searchCalls, m.searchTokens, m.searchCost,
	)

	return m
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBatch records one processed batch and its per-item statuses
func (m *Metrics) ObserveBatch(outcome *ingest.Outcome, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.batchesTotal.WithLabelValues(result).Inc()
	m.batchDur.Observe(elapsed.Seconds())

	if outcome == nil {
		return
	}
	for _, item := range outcome.Items {
		m.itemsTotal.WithLabelValues(strings.ToLower(string(item.Status))).Inc()
	}
}

// ObserveSearch records one collaborator fetch by how it ended
func (m *Metrics) ObserveSearch(err error) {
	var schemaErr *search.SchemaError
	var exhausted *search.ExhaustedError

	outcome := "ok"
	switch {
	case err == nil:
	case errors.As(err, &schemaErr):
		outcome = "schema_error"
	case errors.As(err, &exhausted):
		outcome = "exhausted"
	default:
		outcome = "error"
	}
	m.searchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveUsage refreshes the usage gauges from a tracker snapshot
func (m *Metrics) ObserveUsage(usage cost.Usage) {
	m.searchCalls.Set(float64(usage.Calls))
	m.searchTokens.WithLabelValues("input").Set(float64(usage.InputTokens))
	m.searchTokens.WithLabelValues("output").Set(float64(usage.OutputTokens))
	m.searchCost.Set(usage.CostUSD)
}
