package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/snarg/audio-correct/internal/store"
)

// StoreStats is implemented by *store.Store; the collector reads it at
// scrape time rather than polling on a timer.
type StoreStats interface {
	Stats(ctx context.Context) (store.QueueStats, error)
}

// Collector implements prometheus.Collector to read queue depth gauges at
// scrape time, grounded on the pack's pool-stat collector pattern but
// reporting job queue state instead of a database connection pool.
type Collector struct {
	store StoreStats

	pending    *prometheus.Desc
	processing *prometheus.Desc
	completed  *prometheus.Desc
	failed     *prometheus.Desc
}

// NewCollector creates a collector reading live queue depths from s at
// scrape time. s may be nil (metrics will report 0).
func NewCollector(s StoreStats) *Collector {
	return &Collector{
		store: s,
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "pending"),
			"Current number of jobs awaiting processing.",
			nil, nil,
		),
		processing: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "processing"),
			"Current number of jobs being processed.",
			nil, nil,
		),
		completed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "completed"),
			"Current number of jobs in the COMPLETED state.",
			nil, nil,
		),
		failed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "failed"),
			"Current number of jobs in the FAILED state.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pending
	ch <- c.processing
	ch <- c.completed
	ch <- c.failed
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var stats store.QueueStats
	if c.store != nil {
		if s, err := c.store.Stats(context.Background()); err == nil {
			stats = s
		}
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(stats.Pending))
	ch <- prometheus.MustNewConstMetric(c.processing, prometheus.GaugeValue, float64(stats.Processing))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.GaugeValue, float64(stats.Completed))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.GaugeValue, float64(stats.Failed))
}
