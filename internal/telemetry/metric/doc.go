// Package metric provides Prometheus metrics for BotCore.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: Custom collectors for BotCore metrics
//
// Component packages (concurrency, router) register their own
// collectors on the shared registry; this package adds the cache
// collector and the process/runtime baseline.
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
