// Package metrics instruments the pipeline with Prometheus counters and
// histograms, exposed on a dedicated port separate from any upload API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "audio_correct"

// Job and correction counters, incremented directly by the worker pipeline.
var (
	JobsClaimedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_claimed_total",
		Help:      "Total jobs claimed from the queue.",
	})

	JobsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_completed_total",
		Help:      "Total jobs that reached COMPLETED.",
	})

	JobsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_failed_total",
		Help:      "Total jobs that reached FAILED.",
	})

	CorrectionsProposedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corrections_proposed_total",
		Help:      "Total second-pass corrections evaluated.",
	})

	CorrectionsAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corrections_applied_total",
		Help:      "Total second-pass corrections accepted into the transcript.",
	})

	CorrectionsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corrections_rejected_total",
		Help:      "Total second-pass corrections rejected, labeled by reason.",
	}, []string{"reason"})

	PipelineDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Wall-clock duration of a single job's pipeline, claim to finalize.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~34min
	})

	// HTTP metrics instrument the small status/metrics surface itself, not
	// the out-of-scope upload API.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed by the status server.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds on the status server.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

func init() {
	prometheus.MustRegister(
		JobsClaimedTotal,
		JobsCompletedTotal,
		JobsFailedTotal,
		CorrectionsProposedTotal,
		CorrectionsAppliedTotal,
		CorrectionsRejectedTotal,
		PipelineDurationSeconds,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// InstrumentHandler returns gin middleware recording request metrics for
// the status/metrics HTTP surface.
func InstrumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
