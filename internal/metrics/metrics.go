// Package metrics exposes Prometheus collectors for the StoreLink server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Preview fetch outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
	OutcomeParseError   = "parse_error"
	OutcomeTooLarge     = "too_large"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	previewFetchTotal          *prometheus.CounterVec
	previewFetchSeconds        prometheus.Histogram
	linkMutationsTotal         *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route"},
		)

		previewFetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storelink_preview_fetch_total",
				Help: "Link preview fetches, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		previewFetchSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storelink_preview_fetch_seconds",
				Help:    "Time spent fetching link previews.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		linkMutationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storelink_link_mutations_total",
				Help: "Link create/update/delete operations, labeled by op and result.",
			},
			[]string{"op", "result"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObservePreviewFetch records one resolver call.
func ObservePreviewFetch(outcome string, duration time.Duration) {
	Init()
	previewFetchTotal.WithLabelValues(outcome).Inc()
	previewFetchSeconds.Observe(duration.Seconds())
}

// ObserveLinkMutation records a link store write. err decides the result label.
func ObserveLinkMutation(op string, err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	linkMutationsTotal.WithLabelValues(op, result).Inc()
}
