// Package metrics collects Prometheus counters for the scan and
// notification pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records scan outcomes and notification results.
type Collector struct {
	scans         *prometheus.CounterVec
	scanLatency   prometheus.Histogram
	notifications *prometheus.CounterVec
}

// NewCollector registers the metrics on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_scans_total",
			Help: "Scan attempts by outcome.",
		}, []string{"outcome"}),
		scanLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_scan_duration_seconds",
			Help:    "End-to-end scan handling latency.",
			Buckets: prometheus.DefBuckets,
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_notifications_total",
			Help: "Parent notification attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(c.scans, c.scanLatency, c.notifications)
	return c
}

// RecordScan counts one scan attempt.
func (c *Collector) RecordScan(outcome string, took time.Duration) {
	c.scans.WithLabelValues(outcome).Inc()
	c.scanLatency.Observe(took.Seconds())
}

// RecordNotification counts one delivery attempt.
func (c *Collector) RecordNotification(result string) {
	c.notifications.WithLabelValues(result).Inc()
}
