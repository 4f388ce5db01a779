package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records per-run engine outcomes.
type ReconciliationMetrics struct {
	runDuration    prometheus.Histogram
	lineOutcomes   *prometheus.CounterVec
	catalogFetches prometheus.Counter
}

// NewReconciliationMetrics registers the engine metrics on the provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconciliation_run_duration_seconds",
		Help:    "Duration of reconciliation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	lineOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_line_outcomes_total",
		Help: "Line items processed, labelled by terminal status.",
	}, []string{"status"})
	catalogFetches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_catalog_fetches_total",
		Help: "Vendor catalog fetches performed across runs.",
	})
	reg.MustRegister(runDuration, lineOutcomes, catalogFetches)
	return &ReconciliationMetrics{
		runDuration:    runDuration,
		lineOutcomes:   lineOutcomes,
		catalogFetches: catalogFetches,
	}
}

// ObserveRunDuration records the duration of one reconciliation run.
func (m *ReconciliationMetrics) ObserveRunDuration(duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
}

// IncLineOutcome increments the counter for the given terminal status.
func (m *ReconciliationMetrics) IncLineOutcome(status string) {
	if m == nil || m.lineOutcomes == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.lineOutcomes.WithLabelValues(status).Inc()
}

// IncCatalogFetch counts one vendor catalog fetch.
func (m *ReconciliationMetrics) IncCatalogFetch() {
	if m == nil || m.catalogFetches == nil {
		return
	}
	m.catalogFetches.Inc()
}
