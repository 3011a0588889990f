package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aodata/market-ingest/internal/buffer"
	"github.com/aodata/market-ingest/internal/model"
)

// fakeOrderStore records upserted batches.
type fakeOrderStore struct {
	mu      sync.Mutex
	batches [][]model.MarketOrder
	err     error
}

func (s *fakeOrderStore) Upsert(ctx context.Context, orders []model.MarketOrder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, orders)
	return int64(len(orders)), nil
}

func (s *fakeOrderStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *fakeOrderStore) lastBatch() []model.MarketOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}

func orderPayload(id int64, price int32) []byte {
	return []byte(fmt.Sprintf(`{
		"Id": %d, "ItemTypeId": "T4_BAG", "LocationId": 7,
		"QualityLevel": 1, "EnchantmentLevel": 0,
		"UnitPriceSilver": %d, "Amount": 1, "AuctionType": "offer",
		"Expires": "2030-01-01T00:00:00"}`, id, price))
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestOrderProcessor_LastWriteInBatchWins(t *testing.T) {
	intake := buffer.NewIntake[[]byte](8)
	store := &fakeOrderStore{}
	cfg := Config{FlushThreshold: 1, PollInterval: 5 * time.Millisecond}

	// Three updates to the same listing, pushed before the processor starts
	// so they land in one drain.
	intake.Push(orderPayload(42, 100))
	intake.Push(orderPayload(42, 110))
	intake.Push(orderPayload(42, 95))

	p := NewOrderProcessor(cfg, intake, store, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, func() bool { return store.batchCount() > 0 }, "no batch upserted")

	batch := store.lastBatch()
	if len(batch) != 1 {
		t.Fatalf("batch has %d rows, want 1 after dedup", len(batch))
	}
	if batch[0].ID != 42 {
		t.Errorf("ID = %d, want 42", batch[0].ID)
	}
	if batch[0].UnitPriceSilver != 95 {
		t.Errorf("UnitPriceSilver = %d, want 95 (last in push order wins)", batch[0].UnitPriceSilver)
	}
}

func TestOrderProcessor_ThresholdGating(t *testing.T) {
	intake := buffer.NewIntake[[]byte](8)
	store := &fakeOrderStore{}
	cfg := Config{FlushThreshold: 5, PollInterval: 5 * time.Millisecond}

	intake.Push(orderPayload(1, 100))
	intake.Push(orderPayload(2, 100))

	p := NewOrderProcessor(cfg, intake, store, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop(context.Background())

	// Below threshold: no write may happen.
	time.Sleep(50 * time.Millisecond)
	if n := store.batchCount(); n != 0 {
		t.Fatalf("store written %d times below threshold, want 0", n)
	}
	if intake.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (buffer untouched)", intake.Len())
	}

	// Crossing the threshold triggers exactly one write cycle.
	for i := int64(3); i <= 5; i++ {
		intake.Push(orderPayload(i, 100))
	}
	waitFor(t, func() bool { return store.batchCount() > 0 }, "no flush after crossing threshold")

	time.Sleep(50 * time.Millisecond)
	if n := store.batchCount(); n != 1 {
		t.Errorf("store written %d times, want exactly 1 per crossing", n)
	}
	if batch := store.lastBatch(); len(batch) != 5 {
		t.Errorf("flushed %d rows, want 5", len(batch))
	}
}

func TestOrderProcessor_MalformedMessageCountedAndSkipped(t *testing.T) {
	intake := buffer.NewIntake[[]byte](8)
	store := &fakeOrderStore{}
	cfg := Config{FlushThreshold: 1, PollInterval: 5 * time.Millisecond}

	intake.Push([]byte(`{"Id": "garbage`))
	intake.Push(orderPayload(7, 500))

	p := NewOrderProcessor(cfg, intake, store, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, func() bool { return store.batchCount() > 0 }, "no batch upserted")

	batch := store.lastBatch()
	if len(batch) != 1 || batch[0].ID != 7 {
		t.Fatalf("batch = %+v, want single row id=7", batch)
	}

	stats := p.Stats()
	if stats.DecodeErrors != 1 {
		t.Errorf("DecodeErrors = %d, want 1", stats.DecodeErrors)
	}
	if stats.MessagesDrained != 2 {
		t.Errorf("MessagesDrained = %d, want 2", stats.MessagesDrained)
	}
	if stats.RowsUpserted != 1 {
		t.Errorf("RowsUpserted = %d, want 1", stats.RowsUpserted)
	}
}

func TestOrderProcessor_StoreErrorDropsBatchAndContinues(t *testing.T) {
	intake := buffer.NewIntake[[]byte](8)
	store := &fakeOrderStore{err: errors.New("connection reset")}
	cfg := Config{FlushThreshold: 1, PollInterval: 5 * time.Millisecond}

	intake.Push(orderPayload(1, 100))

	p := NewOrderProcessor(cfg, intake, store, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, func() bool { return p.Stats().StoreErrors > 0 }, "store error not recorded")

	// The failed batch is gone; the loop keeps running and flushes new
	// arrivals once the store recovers.
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	intake.Push(orderPayload(2, 200))
	waitFor(t, func() bool { return store.batchCount() > 0 }, "processor stopped after store error")

	batch := store.lastBatch()
	if len(batch) != 1 || batch[0].ID != 2 {
		t.Errorf("batch = %+v, want only the new arrival id=2", batch)
	}
}

func TestOrderProcessor_ReportsCycleDuration(t *testing.T) {
	intake := buffer.NewIntake[[]byte](8)
	store := &fakeOrderStore{}

	var mu sync.Mutex
	var durations []time.Duration
	cfg := Config{
		FlushThreshold: 1,
		PollInterval:   5 * time.Millisecond,
		OnCycle: func(d time.Duration) {
			mu.Lock()
			durations = append(durations, d)
			mu.Unlock()
		},
	}

	intake.Push(orderPayload(1, 100))

	p := NewOrderProcessor(cfg, intake, store, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, func() bool { return store.batchCount() > 0 }, "no batch upserted")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(durations) > 0
	}, "cycle duration not reported")

	mu.Lock()
	defer mu.Unlock()
	if len(durations) != 1 {
		t.Errorf("OnCycle called %d times, want 1", len(durations))
	}
	if durations[0] <= 0 {
		t.Errorf("duration = %v, want positive", durations[0])
	}
}

func TestOrderProcessor_Lifecycle(t *testing.T) {
	intake := buffer.NewIntake[[]byte](8)
	p := NewOrderProcessor(DefaultConfig(), intake, &fakeOrderStore{}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
