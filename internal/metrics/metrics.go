// Package metrics holds the process-wide Prometheus collectors, registered once
// on the default registry and served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
)

var (
	// Retrieval Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osusume_recommend_requests_total",
			Help: "Total number of recommendation requests by operation and outcome",
		},
		[]string{"operation", "outcome"}, // "similar", "text"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "osusume_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Encoder Metrics
	EncoderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osusume_encoder_duration_seconds",
			Help:    "Duration of text encoder inference in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	EncoderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osusume_encoder_errors_total",
			Help: "Total number of failed or timed out encoder calls",
		},
	)

	// Index Metrics
	IndexVectors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "osusume_index_vectors",
			Help: "Number of vectors in the loaded index",
		},
	)

	IndexStale = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "osusume_index_stale",
			Help: "1 when an artifact changed on disk since startup",
		},
	)

	// HTTP Metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osusume_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRecommendation records one retrieval call.
func RecordRecommendation(operation, outcome string, duration time.Duration) {
	RecommendRequests.WithLabelValues(operation, outcome).Inc()
	RecommendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEncode records one encoder call.
func RecordEncode(duration time.Duration, err error) {
	EncoderDuration.Observe(duration.Seconds())
	if err != nil {
		EncoderErrors.Inc()
	}
}

// SetIndexVectors publishes the loaded index size.
func SetIndexVectors(n int) {
	IndexVectors.Set(float64(n))
}

// SetStale publishes the artifact staleness flag.
func SetStale(stale bool) {
	if stale {
		IndexStale.Set(1)
		return
	}
	IndexStale.Set(0)
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route string, status int) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
