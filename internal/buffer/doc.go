// Package buffer implements the shared intake buffer between the bus
// subscriber and the batch processors.
//
// Access always goes through Push/DrainAll; the lock discipline lives inside
// the buffer so callers never see it. Multiple producers may push
// concurrently; exactly one consumer drains at a time.
package buffer
