package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts lifecycle transitions and payment proof outcomes.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	proofs      *prometheus.CounterVec
	confidence  prometheus.Histogram
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Committed order status transitions by target status.",
	}, []string{"status"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "state_conflicts_total",
		Help:      "Transitions refused because the order was in another status.",
	}, []string{"status"})
	proofs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payment_proofs",
		Name:      "analyses_total",
		Help:      "Payment proof submissions by outcome.",
	}, []string{"outcome"})
	confidence := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "payment_proofs",
		Name:      "confidence",
		Help:      "Confidence scores produced by the payment proof analyzer.",
		Buckets:   []float64{0.1, 0.25, 0.5, 0.6, 0.75, 0.9, 1},
	})
	reg.MustRegister(transitions, conflicts, proofs, confidence)
	return &OrderMetrics{transitions: transitions, conflicts: conflicts, proofs: proofs, confidence: confidence}
}

// IncTransition counts a committed move into status.
func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncConflict counts a refused move into status.
func (m *OrderMetrics) IncConflict(status string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveProof records the analyzer score and what the upload flow did with it.
func (m *OrderMetrics) ObserveProof(outcome string, confidence float64) {
	if m == nil || m.proofs == nil {
		return
	}
	m.proofs.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.confidence.Observe(confidence)
}
