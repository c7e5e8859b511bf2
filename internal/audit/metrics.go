package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricAuditLogsTotal     = "audit_logs_total"
	MetricAuditChangesTotal  = "audit_changes_total"
	MetricAuditFailuresTotal = "audit_failures_total"
)

// Metrics contains Prometheus metrics for the audit engine. All operations
// are thread-safe.
type Metrics struct {
	logsTotal     prometheus.Counter
	changesTotal  prometheus.Counter
	failuresTotal *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		logsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricAuditLogsTotal,
				Help: "Total number of audit log batches recorded",
			},
		),
		changesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricAuditChangesTotal,
				Help: "Total number of attribute transitions recorded",
			},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricAuditFailuresTotal,
				Help: "Total number of failed audit invocations by reason",
			},
			[]string{"reason"},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.logsTotal,
		m.changesTotal,
		m.failuresTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveInvocation records one successful TrackChanges invocation.
func (m *Metrics) ObserveInvocation(changes int64) {
	m.logsTotal.Inc()
	m.changesTotal.Add(float64(changes))
}

// ObserveFailure records one failed invocation with its reason.
func (m *Metrics) ObserveFailure(reason string) {
	m.failuresTotal.WithLabelValues(reason).Inc()
}
