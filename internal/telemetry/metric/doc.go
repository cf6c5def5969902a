// Package metric provides Prometheus metrics for webstore.
//
//   - prometheus.go: registry and /metrics HTTP handler
//   - sync.go: per-Mirror synchronization counters
//
// Metrics are exposed at /metrics in Prometheus text format when the
// watch command runs with a metrics address.
package metric
