package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	sessionsRecordedTotal prometheus.Counter
	xpAwardedTotal        prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skilltrack",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skilltrack",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skilltrack",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		sessionsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skilltrack",
			Name:      "activity_sessions_recorded_total",
			Help:      "Total number of activity sessions recorded.",
		})

		xpAwardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skilltrack",
			Name:      "experience_points_awarded_total",
			Help:      "Total experience points awarded for recorded sessions.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			sessionsRecordedTotal,
			xpAwardedTotal,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SessionsRecorded exposes the counter for recorded activity sessions.
func SessionsRecorded() prometheus.Counter {
	RegisterMetrics()
	return sessionsRecordedTotal
}

// XPAwarded exposes the counter for awarded experience points.
func XPAwarded() prometheus.Counter {
	RegisterMetrics()
	return xpAwardedTotal
}
