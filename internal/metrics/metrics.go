// Package metrics exposes Prometheus collectors for the API server and the
// thumbnail worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drive_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_uploads_total",
			Help: "Upload completions by terminal status",
		},
		[]string{"status"},
	)

	thumbnailEnqueueFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drive_thumbnail_enqueue_failures_total",
			Help: "Thumbnail jobs that could not be handed to the queue",
		},
	)

	thumbnailJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_thumbnail_jobs_total",
			Help: "Thumbnail jobs by outcome",
		},
		[]string{"outcome"},
	)

	thumbnailJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drive_thumbnail_job_duration_seconds",
			Help:    "Thumbnail job processing time",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	thumbnailJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drive_thumbnail_jobs_in_flight",
			Help: "Thumbnail jobs currently being processed",
		},
	)

	permanentDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_permanent_deletes_total",
			Help: "Committed permanent deletions, split by whether the blob was reclaimed",
		},
		[]string{"is_last"},
	)

	objectStoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_object_store_operations_total",
			Help: "Object store operations",
		},
		[]string{"operation", "status"},
	)

	objectStoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drive_object_store_operation_duration_seconds",
			Help:    "Object store operation duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordUpload(success bool) {
	status := "completed"
	if !success {
		status = "failed"
	}
	uploadsTotal.WithLabelValues(status).Inc()
}

func RecordEnqueueFailure() {
	thumbnailEnqueueFailures.Inc()
}

// Thumbnail job outcomes.
const (
	OutcomeAcked    = "acked"
	OutcomeSkipped  = "skipped"
	OutcomeDropped  = "dropped"
	OutcomeRejected = "rejected"
)

func RecordThumbnailJob(outcome string, duration time.Duration) {
	thumbnailJobsTotal.WithLabelValues(outcome).Inc()
	thumbnailJobDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func ThumbnailJobStarted()  { thumbnailJobsInFlight.Inc() }
func ThumbnailJobFinished() { thumbnailJobsInFlight.Dec() }

func RecordPermanentDelete(isLast bool) {
	permanentDeletesTotal.WithLabelValues(strconv.FormatBool(isLast)).Inc()
}

func RecordObjectStoreOperation(operation string, duration time.Duration, success bool) {
	objectStoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	objectStoreOperationsTotal.WithLabelValues(operation, status).Inc()
}

// Middleware records request count and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
