package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Delivery outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// NotificationMetrics counts per-channel deliveries and retries.
type NotificationMetrics struct {
	deliveries *prometheus.CounterVec
	retries    *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "deliveries_total",
		Help:      "Notification deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "retries_total",
		Help:      "Delivery attempts beyond the first, by channel.",
	}, []string{"channel"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent delivering to one recipient, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"channel"})
	reg.MustRegister(deliveries, retries, latency)
	return &NotificationMetrics{deliveries: deliveries, retries: retries, latency: latency}
}

// ObserveDelivery records one recipient delivery on channel.
func (m *NotificationMetrics) ObserveDelivery(channel, outcome string, attempts int, took time.Duration) {
	if m == nil || m.deliveries == nil {
		return
	}
	channel = normalizeLabel(channel)
	m.deliveries.WithLabelValues(channel, outcome).Inc()
	if attempts > 1 {
		m.retries.WithLabelValues(channel).Add(float64(attempts - 1))
	}
	m.latency.WithLabelValues(channel).Observe(took.Seconds())
}
