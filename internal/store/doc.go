// Package store implements Postgres persistence for the ingestion pipeline.
//
// Write paths:
//   - market_order / market_history: one bulk UNNEST upsert per drain cycle,
//     wrapped in a single transaction; conflicts overwrite only the mutable
//     columns and never touch created_at or identity fields
//   - maintenance: expiry sweep deletes and materialized-view refreshes, each
//     in its own transaction
//   - reference data: batched ON CONFLICT DO NOTHING inserts, startup only
package store
