// Package codec parses raw bus payloads into typed domain records.
//
// The feed delivers JSON with loosely-typed numeric fields and textual
// timestamps; the codec normalizes them into the store's canonical types:
//   - numbers -> fixed-width integers
//   - numeric location ids -> zero-padded 4-character codes
//   - order expiry strings -> time.Time (naive, UTC)
//   - history bucket timestamps (.NET ticks) -> time.Time
//
// A decode failure is reported as a *DecodeError and the message is dropped
// by the caller; the source does not resend on decode failure.
package codec
