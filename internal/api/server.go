// Package api exposes the read-only status interface for a running
// investigation. Routes:
//   - GET /healthz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /status for the current loop state.
//   - GET /discoveries for the redacted discovery record.
//   - GET /report for the final report once the run terminated.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
	"github.com/osintworks/trailhound/internal/metrics"
)

// StatusSource is the controller-side view the server reads from. All
// methods must be safe for concurrent use.
type StatusSource interface {
	Status() investigation.Status
	Discoveries() []investigation.Discovery
	Report() (investigation.Report, bool)
}

// Server hosts the status routes.
type Server struct {
	source StatusSource
	log    *zap.Logger
	router chi.Router
	http   *http.Server
}

// NewServer wires the routes.
func NewServer(source StatusSource, port int, log *zap.Logger) *Server {
	s := &Server{source: source, log: log}

	r := chi.NewRouter()
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/status", s.status)
	r.Get("/discoveries", s.discoveries)
	r.Get("/report", s.report)

	s.router = r
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router for use in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("status server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Status())
}

func (s *Server) discoveries(w http.ResponseWriter, _ *http.Request) {
	list := s.source.Discoveries()
	if list == nil {
		list = []investigation.Discovery{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"discoveries": list})
}

func (s *Server) report(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.source.Report()
	if !ok {
		writeError(w, http.StatusNotFound, "report not available until the run terminates")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// metricsMiddleware records request latency per route.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unknown"
		}
		metrics.ObserveHTTPRequest(r.Method, route, time.Since(start))
	})
}
