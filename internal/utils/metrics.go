package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adsight_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adsight_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	rowsNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adsight_rows_normalized_total",
		Help: "Rows that survived normalization, by source.",
	}, []string{"source"})

	rowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adsight_rows_dropped_total",
		Help: "Rows dropped during normalization (unparseable dates), by source.",
	}, []string{"source"})
)

// ObserveRows records one normalization pass: in raw rows, out surviving.
func ObserveRows(source string, in, out int) {
	rowsNormalized.WithLabelValues(source).Add(float64(out))
	if in > out {
		rowsDropped.WithLabelValues(source).Add(float64(in - out))
	}
}
