package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ComparisonCount counts completed similarity comparisons
	ComparisonCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resemble_comparisons_total",
			Help: "Total number of similarity comparisons",
		},
		[]string{"algorithm", "status"},
	)

	// ComparisonDuration measures comparison duration
	ComparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "resemble_comparison_duration_seconds",
			Help: "Similarity comparison duration in seconds",
		},
	)

	// CacheLookups counts score cache lookups by result
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resemble_cache_lookups_total",
			Help: "Total number of score cache lookups",
		},
		[]string{"result"},
	)

	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)

// InitPrometheus registers all collectors with the default registry
func InitPrometheus() {
	prometheus.MustRegister(
		ComparisonCount,
		ComparisonDuration,
		CacheLookups,
		RequestCount,
	)
}
