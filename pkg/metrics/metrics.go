// Package metrics exposes the Prometheus registry used by the search client
// and controller. Metrics are registered via promauto in the packages that
// record them; this package serves them and documents what exists.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all search metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source scraped by Handler.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - product_search_requests_total{status} (Counter): Search requests by HTTP status or "network_error"
//   - product_search_request_duration_seconds (Histogram): Search request duration
//   - product_search_errors_total{class} (Counter): Failures by class (client, server, network, decode)
//
// Page Metrics (pkg/controller):
//   - product_search_debounced_total (Counter): Searches fired after the input quiet period
//   - product_search_renders_total (Counter): Result pages rendered into the table
//   - product_search_stale_responses_total (Counter): Responses dropped with DropStale enabled
//
// Example Prometheus Queries:
//
//   # Search failure ratio
//   sum(rate(product_search_errors_total[5m])) / sum(rate(product_search_requests_total[5m]))
//
//   # P95 search latency
//   histogram_quantile(0.95, rate(product_search_request_duration_seconds_bucket[5m]))
//
//   # Keystrokes collapsed by debouncing show up as a low debounced/requests ratio
//   rate(product_search_debounced_total[5m])
