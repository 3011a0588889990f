// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Intake buffer size per feed (the buffer is unbounded; sustained growth
//     means the store cannot keep up with the bus)
//   - Messages drained, decode errors, rows upserted per feed
//   - Maintenance sweep deletions and refresh cycles
package metrics
