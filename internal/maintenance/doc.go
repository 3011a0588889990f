// Package maintenance implements the periodic store upkeep tasks.
//
// Two independent timer loops share nothing with the batch processors beyond
// the store connection pool:
//   - Sweeper deletes expired or stale market orders
//   - Refresher recomputes the derived aggregate views
//
// A failed cycle is logged and retried from scratch on the next tick; the
// loops run for the lifetime of the process.
package maintenance
