// Package metrics exposes gateway counters on the default Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for RPC calls.
const (
	OutcomeOK        = "ok"
	OutcomeToolError = "tool_error"
	OutcomeNotified  = "notification"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkhub_gateway_requests_total",
			Help: "JSON-RPC requests handled by the agent gateway, by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkhub_gateway_rate_limited_total",
			Help: "Requests rejected because an API key exceeded its quota",
		},
	)

	visitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkhub_gateway_visits_total",
			Help: "Recorded agent visits by classified agent",
		},
		[]string{"agent"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

// ObserveRPC counts one dispatched JSON-RPC message. Error outcomes are
// labelled by their numeric code.
func ObserveRPC(method, outcome string) {
	if method == "" {
		method = "unknown"
	}
	rpcRequestsTotal.WithLabelValues(method, outcome).Inc()
}

// ErrorOutcome formats an RPC error code as an outcome label.
func ErrorOutcome(code int) string {
	return "error_" + strconv.Itoa(code)
}

func ObserveRateLimited() {
	rateLimitedTotal.Inc()
}

func ObserveVisit(agent string) {
	visitsTotal.WithLabelValues(agent).Inc()
}

// ObserveHTTP records request latency for a route template.
func ObserveHTTP(route, method string, status int, d time.Duration) {
	httpRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
