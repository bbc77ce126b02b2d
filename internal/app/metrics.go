package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vpick_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vpick_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	fetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vpick_fetch_requests_total",
		Help: "Fetch-video requests by outcome",
	}, []string{"outcome"})

	pickerSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vpick_picker_items",
		Help:    "Number of picker items returned per successful request",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	})
)
