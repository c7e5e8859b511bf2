package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricHTTPRequestDuration = "http_request_duration_seconds"
	MetricHTTPRequestsTotal   = "http_requests_total"
)

// Metrics contains Prometheus metrics for the HTTP layer. All operations
// are thread-safe.
type Metrics struct {
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.httpRequestDuration,
		m.httpRequestsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// HTTPMetrics is a middleware that records request counts and durations,
// labeled by method, normalized path, and status.
func HTTPMetrics(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			labels := []string{r.Method, normalizePath(r.URL.Path), strconv.Itoa(rw.statusCode)}
			m.httpRequestsTotal.WithLabelValues(labels...).Inc()
			m.httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		})
	}
}

// staticRoutes are paths recorded as-is in metric labels.
var staticRoutes = map[string]bool{
	"/":             true,
	"/health":       true,
	"/ready":        true,
	"/metrics":      true,
	"/auth/login":   true,
	"/auth/refresh": true,
	"/households":   true,
	"/expenses":     true,
	"/incomes":      true,
	"/budgets":      true,
}

// normalizePath converts paths with dynamic segments to route patterns to
// prevent cardinality explosion in metrics, mapping e.g. /expenses/123 to
// /expenses/{id}.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}

	for _, prefix := range []string{"/households/", "/expenses/", "/incomes/", "/budgets/"} {
		if strings.HasPrefix(path, prefix) {
			rest := strings.TrimPrefix(path, prefix)
			if idx := strings.Index(rest, "/"); idx != -1 {
				sub := rest[idx+1:]
				if strings.HasPrefix(sub, "months/") {
					return prefix + "{id}/months/{month}"
				}
				return prefix + "{id}/" + sub
			}
			return prefix + "{id}"
		}
	}
	return "/other"
}
