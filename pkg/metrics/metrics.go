// Package metrics provides the centralized Prometheus metrics registry for
// the management client. All metrics are defined in their respective packages
// (client, admin, settlement, throttle) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the management client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - sb_mgmt_requests_total{path, status} (Counter): Total requests by path and HTTP status
//   - sb_mgmt_request_duration_seconds{path} (Histogram): Request duration by path
//   - sb_mgmt_errors_total{class} (Counter): Errors by class (client, server, throttle, network)
//
// Retry Metrics (pkg/client):
//   - sb_mgmt_retries_total{error_class} (Counter): Retry attempts by error class
//   - sb_mgmt_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - sb_mgmt_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Throttle Metrics (pkg/throttle):
//   - sb_mgmt_throttle_suspended_seconds (Gauge): Seconds remaining in the current throttle window
//   - sb_mgmt_throttle_hits_total (Counter): 429 responses observed
//   - sb_mgmt_throttle_blocks_total (Counter): Requests blocked while the window was open
//
// Listing Metrics (pkg/admin):
//   - sb_list_pages_total{entity_kind} (Counter): List pages fetched by entity kind
//   - sb_list_items_total{entity_kind} (Counter): Entities yielded by entity kind
//   - sb_list_dropped_entries_total{entity_kind} (Counter): Undecodable feed entries dropped
//
// Settlement Metrics (pkg/settlement):
//   - sb_settlements_total{verb, outcome} (Counter): Disposition attempts by verb and outcome
//   - sb_link_severed_total{verb} (Counter): Dispositions rejected client-side on a severed link
//
// Example Prometheus Queries:
//
//   # Dropped Entry Rate
//   sum(rate(sb_list_dropped_entries_total[5m])) /
//   sum(rate(sb_list_items_total[5m]))
//
//   # Throttle Pressure
//   rate(sb_mgmt_throttle_blocks_total[5m])
//
//   # Settlement Failure Rate by Verb
//   sum by (verb) (rate(sb_settlements_total{outcome!="ok"}[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(sb_mgmt_request_duration_seconds_bucket[5m]))
