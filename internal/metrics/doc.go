// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Sync cycle duration
//   - Per-partner binding outcomes and latency
//   - Ingested, duplicate and failed record counts
package metrics
