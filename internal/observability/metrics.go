// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogicum_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records repository query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogicum_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ContentWrites counts successful writes of posts and comments.
	ContentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogicum_content_writes_total",
		Help: "Total number of post and comment writes by kind and action",
	}, []string{"kind", "action"})

	// AccessDenials counts requests refused by the authorization gate.
	AccessDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogicum_access_denials_total",
		Help: "Total number of denied requests by resource and decision",
	}, []string{"resource", "decision"})

	// MediaBytes counts bytes written to the media store.
	MediaBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogicum_media_bytes_total",
		Help: "Total bytes written to media storage by backend",
	}, []string{"backend"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordWrite increments the content write counter.
func RecordWrite(kind, action string) {
	ContentWrites.WithLabelValues(kind, action).Inc()
}

// RecordDenial increments the access denial counter.
func RecordDenial(resource, decision string) {
	AccessDenials.WithLabelValues(resource, decision).Inc()
}
