// Package metrics provides the Prometheus registry and scrape handler for the
// registry dashboard. All metrics are defined in their respective packages
// (client, pagination, auth, dashboard) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the scrape handler for the default Prometheus registry,
// where promauto registers every collector of this module.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - registry_requests_total{endpoint, status} (Counter): Listing requests by endpoint and HTTP status
//   - registry_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - registry_errors_total{class} (Counter): Errors by class (auth, client, server, network, decode)
//
// Aggregation Metrics (pkg/pagination):
//   - registry_pages_fetched_total (Counter): Listing pages fetched
//   - registry_aggregations_total{outcome} (Counter): Runs by outcome (complete, exhausted, error, invalid)
//   - registry_aggregation_records (Histogram): Records returned per successful run
//
// Auth Metrics (pkg/auth):
//   - registry_auth_attempts_total{outcome} (Counter): Token acquisitions by outcome
//   - registry_token_store_errors_total{operation} (Counter): Redis token store failures
//
// Dashboard Metrics (pkg/dashboard):
//   - dashboard_http_requests_total{route, status} (Counter): Served requests
//   - dashboard_http_request_duration_seconds{route} (Histogram): Handler latency
//
// Example Prometheus Queries:
//
//   # Upstream Error Rate
//   rate(registry_errors_total[5m])
//
//   # Share of runs that hit the end of the data before the limit
//   sum(rate(registry_aggregations_total{outcome="exhausted"}[1h])) /
//   sum(rate(registry_aggregations_total[1h]))
//
//   # P95 Page Latency
//   histogram_quantile(0.95, rate(registry_request_duration_seconds_bucket[5m]))
//
//   # Token churn
//   rate(registry_auth_attempts_total{outcome="success"}[1h])
