// Package metrics registers the Prometheus collectors exported by the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gchan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gchan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Ingestion metrics, updated from the service layer
var (
	// IngestTotal counts per-file ingestion outcomes.
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gchan_ingest_total",
			Help: "Per-file ingestion outcomes",
		},
		[]string{"result"},
	)

	// ThumbnailDuration tracks thumbnail derivation time by media kind.
	ThumbnailDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gchan_thumbnail_duration_seconds",
			Help:    "Thumbnail derivation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	FileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gchan_file_cache_hits_total",
		Help: "File record cache hits",
	})
	FileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gchan_file_cache_misses_total",
		Help: "File record cache misses",
	})
)

// Middleware records request count and latency. The route template
// (c.FullPath) is used as the path label so hashes and ids do not
// explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
