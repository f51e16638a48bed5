package metrics

import "github.com/prometheus/client_golang/prometheus"

// ResolveMetrics counts checkout-time price resolutions by result.
type ResolveMetrics struct {
	results *prometheus.CounterVec
}

// NewResolveMetrics registers the resolution counter on the provided registerer.
func NewResolveMetrics(reg prometheus.Registerer) *ResolveMetrics {
	if reg == nil {
		return &ResolveMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_resolve_results_total",
		Help: "Price resolutions by result (resolved, unserviceable, price_missing, error).",
	}, []string{"result"})
	reg.MustRegister(results)
	return &ResolveMetrics{results: results}
}

// IncResult counts one resolution by result label.
func (m *ResolveMetrics) IncResult(result string) {
	if m == nil || m.results == nil {
		return
	}
	m.results.WithLabelValues(normalizeLabel(result)).Inc()
}
