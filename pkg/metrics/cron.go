// Package metrics holds the Prometheus collectors exported by chatstore
// processes. Every recorder is safe to use when nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chatstore"

// CronJobMetrics records durations and outcomes of scheduled jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewCronJobMetrics registers the cron collectors on reg.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_duration_seconds",
		Help:      "Duration of cron jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_runs_total",
		Help:      "Cron job executions by outcome.",
	}, []string{"job", "outcome"})
	reg.MustRegister(duration, runs)
	return &CronJobMetrics{duration: duration, runs: runs}
}

// ObserveDuration records how long job took.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	c.inc(job, "success")
}

func (c *CronJobMetrics) IncFailure(job string) {
	c.inc(job, "failure")
}

func (c *CronJobMetrics) inc(job, outcome string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
