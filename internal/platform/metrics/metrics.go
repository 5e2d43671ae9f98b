// Package metrics holds the Prometheus collectors for the HTTP surface and the
// request pipeline, plus the middleware and handler that expose them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session resolution outcomes.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeAnonymous     = "anonymous"
	OutcomeError         = "error"
)

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasks_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SessionResolutions counts session resolution outcomes.
	SessionResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_session_resolutions_total",
			Help: "Session resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// GuardRejections counts requests turned away by a role guard.
	GuardRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_guard_rejections_total",
			Help: "Role guard rejections",
		},
		[]string{"guard"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SessionResolutions,
		GuardRejections,
	)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
