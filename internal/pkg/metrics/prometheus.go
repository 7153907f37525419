package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewise",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricewise",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pricewise",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Source adapter metrics
	sourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewise",
			Subsystem: "source",
			Name:      "fetch_total",
			Help:      "Total number of catalog source fetches",
		},
		[]string{"source", "status"},
	)

	sourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricewise",
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single catalog source fetch in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"source"},
	)

	// Search fan-out metrics
	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pricewise",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Duration of a full fan-out search in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	searchPartialFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pricewise",
			Subsystem: "search",
			Name:      "partial_failures_total",
			Help:      "Total number of searches that completed with at least one failed source",
		},
	)

	// Optimizer metrics
	optimizeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewise",
			Subsystem: "optimizer",
			Name:      "runs_total",
			Help:      "Total number of cart optimization runs",
		},
		[]string{"status"},
	)

	snapshotCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewise",
			Subsystem: "snapshot",
			Name:      "cache_requests_total",
			Help:      "Total number of cached snapshot reads by outcome",
		},
		[]string{"outcome"},
	)

	// Ledger metrics
	ledgerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewise",
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "Total number of expense events emitted to the ledger",
		},
		[]string{"status"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricewise",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSourceFetch records one catalog source fetch
func RecordSourceFetch(source, status string, duration time.Duration) {
	sourceFetchTotal.WithLabelValues(source, status).Inc()
	sourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordSearch records the duration of a full fan-out search
func RecordSearch(duration time.Duration, failedSources int) {
	searchDuration.Observe(duration.Seconds())
	if failedSources > 0 {
		searchPartialFailures.Inc()
	}
}

// RecordOptimizeRun records a cart optimization run
func RecordOptimizeRun(status string) {
	optimizeRunsTotal.WithLabelValues(status).Inc()
}

// RecordSnapshotRead records a cached snapshot read outcome (hit or miss)
func RecordSnapshotRead(outcome string) {
	snapshotCacheHits.WithLabelValues(outcome).Inc()
}

// RecordLedgerEvent records an expense event emission
func RecordLedgerEvent(status string) {
	ledgerEventsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
