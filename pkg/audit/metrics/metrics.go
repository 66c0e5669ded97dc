package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit capture pipeline. A nil
// *Metrics is valid and records nothing, so library callers can opt out.
type Metrics struct {
	Cycles             prometheus.Counter
	RecordsPersisted   prometheus.Counter
	PersistFailures    prometheus.Counter
	ResolutionFailures prometheus.Counter
	CycleDuration      prometheus.Histogram
}

// New creates and registers all audit pipeline metrics.
func New() *Metrics {
	return &Metrics{
		Cycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_cycles_total",
			Help: "Total number of completed save cycles",
		}),
		RecordsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_records_persisted_total",
			Help: "Total number of mutation records durably persisted",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_persist_failures_total",
			Help: "Total number of audit writes that failed after the primary commit",
		}),
		ResolutionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_resolution_failures_total",
			Help: "Total number of records persisted with unresolved fields",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audittrail_cycle_duration_seconds",
			Help:    "End-to-end save cycle latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncCycles() {
	if m == nil {
		return
	}
	m.Cycles.Inc()
}

func (m *Metrics) AddRecordsPersisted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsPersisted.Add(float64(n))
}

func (m *Metrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) IncResolutionFailures() {
	if m == nil {
		return
	}
	m.ResolutionFailures.Inc()
}

func (m *Metrics) ObserveCycleDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(d.Seconds())
}
