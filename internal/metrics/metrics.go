// Package metrics exposes Prometheus collectors for the insight service.
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

var (
	scrapesTotal               *prometheus.CounterVec
	retryAttemptsTotal         *prometheus.CounterVec
	sectionFallbacksTotal      *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_scrapes_total",
				Help: "Total acquisition attempts, labeled by target type and outcome.",
			},
			[]string{"target", "outcome"},
		)
		retryAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_retry_attempts_total",
				Help: "Total retry attempts against backends, labeled by backend.",
			},
			[]string{"backend"},
		)
		sectionFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_section_fallbacks_total",
				Help: "Analysis sections replaced by their fallback default, labeled by target type and section.",
			},
			[]string{"target", "section"},
		)
		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insight_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30, 60},
			},
			[]string{"method", "route"},
		)
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_http_requests_total",
				Help: "Total HTTP requests, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)
	})
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape records one acquisition outcome ("success" or "failure").
func ObserveScrape(target, outcome string) {
	if scrapesTotal != nil {
		scrapesTotal.WithLabelValues(target, outcome).Inc()
	}
}

// ObserveRetry records one retry against a backend.
func ObserveRetry(backend string) {
	if retryAttemptsTotal != nil {
		retryAttemptsTotal.WithLabelValues(backend).Inc()
	}
}

// ObserveSectionFallback records a section replaced by its default.
func ObserveSectionFallback(target, section string) {
	if sectionFallbacksTotal != nil {
		sectionFallbacksTotal.WithLabelValues(target, section).Inc()
	}
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
