package ingest

import "time"

// Config holds batch-processor tuning.
type Config struct {
	// FlushThreshold is the buffer size that triggers a drain cycle. Small
	// thresholds flush sooner for lower latency; large ones amortize write
	// cost on high-throughput feeds.
	FlushThreshold int

	// PollInterval is how often the loop checks the buffer size while idle.
	PollInterval time.Duration

	// OnCycle, when set, receives the elapsed time of each completed drain
	// cycle. Failed cycles are not reported.
	OnCycle func(time.Duration)
}

// DefaultConfig returns the defaults used by the order feed.
func DefaultConfig() Config {
	return Config{
		FlushThreshold: 1000,
		PollInterval:   100 * time.Millisecond,
	}
}

// Metrics contains processor counters, cumulative since start.
type Metrics struct {
	Cycles          int64 // Completed drain cycles (successful upserts)
	MessagesDrained int64 // Raw messages taken from the buffer
	RowsUpserted    int64 // Rows reported affected by the store
	DecodeErrors    int64 // Messages dropped as unparseable
	StoreErrors     int64 // Batches dropped on transaction failure
}
