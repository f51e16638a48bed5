package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics records throughput and outcome data for bulk price imports.
type ImportMetrics struct {
	duration     *prometheus.HistogramVec
	rowsTotal    *prometheus.CounterVec
	cellsSkipped prometheus.Counter
	outcomes     *prometheus.CounterVec
}

// NewImportMetrics registers the import metrics on the provided registerer.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	if reg == nil {
		return &ImportMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_import_duration_seconds",
		Help:    "Wall time of bulk price sheet imports.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	rowsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_import_rows_total",
		Help: "Sheet rows seen by the importer, by disposition.",
	}, []string{"disposition"})
	cellsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_import_cells_skipped_total",
		Help: "Blank or invalid price cells skipped during normalization.",
	})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_import_outcomes_total",
		Help: "Import operations by terminal outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, rowsTotal, cellsSkipped, outcomes)
	return &ImportMetrics{
		duration:     duration,
		rowsTotal:    rowsTotal,
		cellsSkipped: cellsSkipped,
		outcomes:     outcomes,
	}
}

// ObserveDuration records how long one import took.
func (m *ImportMetrics) ObserveDuration(format string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(format)).Observe(duration.Seconds())
}

// AddRows counts rows by disposition ("processed" or "skipped").
func (m *ImportMetrics) AddRows(disposition string, n int) {
	if m == nil || m.rowsTotal == nil || n <= 0 {
		return
	}
	m.rowsTotal.WithLabelValues(normalizeLabel(disposition)).Add(float64(n))
}

// AddCellsSkipped counts skipped cells.
func (m *ImportMetrics) AddCellsSkipped(n int) {
	if m == nil || m.cellsSkipped == nil || n <= 0 {
		return
	}
	m.cellsSkipped.Add(float64(n))
}

// IncOutcome counts one import by outcome ("completed", "rejected", "failed").
func (m *ImportMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
