package buffer

import (
	"sync"
)

// Intake is a thread-safe holding area for messages awaiting batch
// processing. Producers append with Push; the single consumer empties it
// with DrainAll, which swaps the backing slice under the lock and releases
// before the drained items are processed. Every pushed item is returned by
// exactly one drain.
//
// The buffer has no capacity bound: a slow consumer lets it grow without
// back-pressure to the producers. Callers are expected to export Len as a
// metric so operators can see sustained growth.
type Intake[T any] struct {
	mu  sync.Mutex
	buf []T

	// Stats
	totalPushed  int64
	totalDrained int64
	drains       int64
}

// NewIntake creates an empty buffer with the given initial capacity hint.
func NewIntake[T any](capacityHint int) *Intake[T] {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Intake[T]{
		buf: make([]T, 0, capacityHint),
	}
}

// Push appends an item to the tail. It holds the lock only for the append,
// so producers never wait out a full drain's processing.
func (b *Intake[T]) Push(item T) {
	b.mu.Lock()
	b.buf = append(b.buf, item)
	b.totalPushed++
	b.mu.Unlock()
}

// DrainAll atomically removes and returns every buffered item in push order.
// Concurrent pushes land either in this drain or in the next one, never both
// and never neither. Returns nil when the buffer is empty.
func (b *Intake[T]) DrainAll() []T {
	b.mu.Lock()
	if len(b.buf) == 0 {
		b.mu.Unlock()
		return nil
	}

	drained := b.buf
	b.buf = make([]T, 0, cap(drained))
	b.totalDrained += int64(len(drained))
	b.drains++
	b.mu.Unlock()

	return drained
}

// Len returns the current number of buffered items.
func (b *Intake[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Stats returns buffer statistics.
func (b *Intake[T]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Len:          len(b.buf),
		TotalPushed:  b.totalPushed,
		TotalDrained: b.totalDrained,
		Drains:       b.drains,
	}
}

// Stats contains buffer statistics.
type Stats struct {
	Len          int
	TotalPushed  int64
	TotalDrained int64
	Drains       int64
}
