package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRPC(t *testing.T) {
	before := testutil.ToFloat64(rpcRequestsTotal.WithLabelValues("ping", OutcomeOK))
	ObserveRPC("ping", OutcomeOK)
	ObserveRPC("ping", OutcomeOK)
	if got := testutil.ToFloat64(rpcRequestsTotal.WithLabelValues("ping", OutcomeOK)); got != before+2 {
		t.Errorf("expected %v, got %v", before+2, got)
	}

	ObserveRPC("", ErrorOutcome(-32700))
	if got := testutil.ToFloat64(rpcRequestsTotal.WithLabelValues("unknown", "error_-32700")); got < 1 {
		t.Errorf("expected empty method to be labelled unknown, got %v", got)
	}
}

func TestHandlerExposesGatewayMetrics(t *testing.T) {
	ObserveRateLimited()
	ObserveVisit("Claude")
	ObserveHTTP("/mcp/{username}", "POST", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, name := range []string{
		"linkhub_gateway_rate_limited_total",
		`linkhub_gateway_visits_total{agent="Claude"}`,
		"linkhub_http_request_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
