package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func TestHandler_ExposesPromautoCollectors(t *testing.T) {
	counter := promauto.NewCounter(prometheus.CounterOpts{
		Name: "metrics_handler_test_total",
		Help: "Counter registered by the handler test",
	})
	counter.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "metrics_handler_test_total 1") {
		t.Errorf("scrape output missing test counter:\n%s", body)
	}
}
