package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "callerid"

// HTTP RED metrics, labelled by route template so /contacts/:id stays one series
var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "code"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	responseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "response_size_bytes",
			Help:    "Size of HTTP responses in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 5),
		},
		[]string{"method", "path", "code"},
	)
)

// Directory metrics
var (
	spamReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spam_reports_total",
			Help:      "Spam report attempts by outcome",
		},
		[]string{"outcome"},
	)

	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "search_requests_total",
			Help:      "Directory searches by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	searchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "search_results_count",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"mode"},
	)

	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "registrations_total",
			Help:      "Account registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by a rate limiter",
		},
		[]string{"scope"},
	)
)

// ObserveSpamReport counts a spam report attempt ("created", "duplicate", "invalid", "error")
func ObserveSpamReport(outcome string) {
	spamReportsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSearch counts a search and records how many results it produced
func ObserveSearch(mode, outcome string, results int) {
	searchRequestsTotal.WithLabelValues(mode, outcome).Inc()
	searchResults.WithLabelValues(mode).Observe(float64(results))
}

// ObserveRegistration counts a registration attempt
func ObserveRegistration(outcome string) {
	registrationsTotal.WithLabelValues(outcome).Inc()
}

// probePaths are excluded from HTTP metrics; they would dwarf real traffic
var probePaths = []string{"/health", "/ready", "/metrics"}

func shouldCollectMetrics(path string) bool {
	for _, p := range probePaths {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

// PrometheusMiddleware records RED metrics per route
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldCollectMetrics(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		inFlight := requestsInFlight.WithLabelValues(method, path)
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		code := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(method, path, code).Inc()
		responseSize.WithLabelValues(method, path, code).Observe(float64(c.Writer.Size()))
	}
}
