// Package model defines shared data types used across the market-ingest
// pipeline.
//
// Conventions:
//   - Prices and amounts: int32 silver units, matching the store columns
//   - Timestamps: time.Time in UTC, stored as TIMESTAMP without zone
//   - Location IDs: fixed-width textual codes, zero-padded to 4 characters
package model
