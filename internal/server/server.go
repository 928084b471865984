// Package server exposes the pipeline's store over HTTP: recent events,
// their sources, the configured monitors, a health check, and the
// Prometheus metrics endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vigilhq/vigil/internal/metrics"
	"github.com/vigilhq/vigil/internal/storage"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// Config holds configuration for the HTTP server
type Config struct {
	// Addr is the listen address
	// Default: :8090
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{Addr: ":8090"}
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}

// Server serves the read API over HTTP
type Server struct {
	store  storage.Storage
	logger *slog.Logger
	http   *http.Server
}

// New creates the HTTP server. Metrics may be nil, in which case the
// /metrics route is not mounted.
func New(cfg Config, store storage.Storage, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleListEvents)
		r.Get("/events/{id}/sources", s.handleEventSources)
		r.Get("/monitors", s.handleListMonitors)
	})

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

// Handler returns the route tree, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens and serves until Shutdown is called. A clean shutdown
// returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := clampInt(r.URL.Query().Get("limit"), defaultEventLimit, maxEventLimit)
	events, err := s.store.ListRecentEvents(ctx, limit)
	if err != nil {
		s.logger.Error("list events failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleEventSources(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	sources, err := s.store.ListSourcesByEvent(ctx, id)
	if err != nil {
		s.logger.Error("list sources failed", "event", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	monitors, err := s.store.ListMonitors(ctx)
	if err != nil {
		s.logger.Error("list monitors failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"monitors": monitors})
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
