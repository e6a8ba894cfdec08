// Package metrics defines the Prometheus collectors for the investigation
// engine. Collectors register on the default registry; the status server
// exposes them on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TargetsDispatched counts frontier targets handed to the dispatcher,
	// labeled by kind.
	TargetsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailhound_targets_dispatched_total",
			Help: "Total number of frontier targets dispatched, labeled by kind.",
		},
		[]string{"kind"},
	)

	// FetchesTotal counts page fetches by outcome (ok or error).
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailhound_fetches_total",
			Help: "Total number of page fetches, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// ArtifactsExtracted counts raw extraction hits before promotion.
	ArtifactsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailhound_artifacts_extracted_total",
			Help: "Total number of artifacts extracted, labeled by type.",
		},
		[]string{"type"},
	)

	// DiscoveriesTotal counts artifacts promoted to discoveries.
	DiscoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailhound_discoveries_total",
			Help: "Total number of accepted discoveries, labeled by type.",
		},
		[]string{"type"},
	)

	// ConsultationsTotal counts advisory calls by outcome.
	ConsultationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailhound_advisor_consultations_total",
			Help: "Total number of advisory consultations, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// FrontierDepth tracks the number of pending targets.
	FrontierDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trailhound_frontier_depth",
			Help: "Number of targets currently pending in the frontier.",
		},
	)

	// IterationsTotal counts completed loop iterations.
	IterationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trailhound_iterations_total",
			Help: "Total number of completed investigation iterations.",
		},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trailhound_http_request_duration_seconds",
			Help:    "Histogram of status API request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	rateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trailhound_rate_limit_delay_seconds",
			Help:    "Histogram of per-domain rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)
)

// ObserveRateLimitDelay records the wait introduced by the per-domain
// limiter.
func ObserveRateLimitDelay(domain string, d time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(domain).Observe(d.Seconds())
}

// ObserveHTTPRequest records one status API request.
func ObserveHTTPRequest(method, route string, d time.Duration) {
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
