// Package bootstrap loads the static reference data (locations, items,
// localized text) into the store before ingestion begins.
//
// The loader is idempotent: every insert ignores existing rows. Any failure
// here is fatal to the process, because correct ingestion depends on the
// reference tables existing.
package bootstrap
