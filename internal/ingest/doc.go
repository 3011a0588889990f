// Package ingest implements the batch processors at the core of the
// pipeline.
//
// Each processor runs one long-lived loop: poll the intake buffer size on a
// short interval, sleep while below the flush threshold, then drain, decode,
// deduplicate latest-wins per natural key, and issue one bulk transactional
// upsert for the whole batch. Decode failures are counted and skipped; a
// store failure drops the batch and the loop continues on the next cycle.
package ingest
