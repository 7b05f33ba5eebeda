package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records document store query latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tastebook_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// RatingSubmissions counts rating submissions by outcome.
	RatingSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebook_rating_submissions_total",
		Help: "Total rating submissions by outcome",
	}, []string{"outcome"})

	// ImageUploads counts stored images by storage backend.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebook_image_uploads_total",
		Help: "Total stored images by storage backend",
	}, []string{"backend"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
