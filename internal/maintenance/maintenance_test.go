package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSweepStore struct {
	mu        sync.Mutex
	calls     int
	lastNow   time.Time
	retention time.Duration
	deleted   int64
	err       error
}

func (s *fakeSweepStore) DeleteExpiredOrders(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastNow = now
	s.retention = retention
	return s.deleted, s.err
}

func (s *fakeSweepStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
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

func TestSweeper_PassesRetentionAndCounts(t *testing.T) {
	store := &fakeSweepStore{deleted: 3}
	cfg := SweeperConfig{Interval: 10 * time.Millisecond, Retention: 24 * time.Hour}

	s := NewSweeper(cfg, store, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	waitFor(t, func() bool { return s.Stats().Sweeps >= 2 }, "sweeper did not tick")

	store.mu.Lock()
	retention := store.retention
	lastNow := store.lastNow
	store.mu.Unlock()

	if retention != 24*time.Hour {
		t.Errorf("retention = %v, want 24h", retention)
	}
	if time.Since(lastNow) > time.Minute {
		t.Errorf("sweep now = %v, not recent", lastNow)
	}

	stats := s.Stats()
	if stats.RowsDeleted < 6 {
		t.Errorf("RowsDeleted = %d, want >= 6 (3 per sweep)", stats.RowsDeleted)
	}
	if stats.Errors != 0 {
		t.Errorf("Errors = %d, want 0", stats.Errors)
	}
}

func TestSweeper_ErrorDoesNotStopLoop(t *testing.T) {
	store := &fakeSweepStore{err: errors.New("deadlock detected")}
	cfg := SweeperConfig{Interval: 10 * time.Millisecond, Retention: time.Hour}

	s := NewSweeper(cfg, store, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	waitFor(t, func() bool { return store.callCount() >= 3 }, "sweeper stopped after error")

	stats := s.Stats()
	if stats.Errors < 3 {
		t.Errorf("Errors = %d, want >= 3", stats.Errors)
	}
	if stats.Sweeps != 0 {
		t.Errorf("Sweeps = %d, want 0 (failed cycles are not completed sweeps)", stats.Sweeps)
	}
}

type fakeAggregateStore struct {
	mu    sync.Mutex
	calls int
	errs  []error // error per call, nil-padded
}

func (s *fakeAggregateStore) RefreshAggregates(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	return err
}

func (s *fakeAggregateStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRefresher_RetriesAfterFailedCycle(t *testing.T) {
	// First cycle fails; the next tick retries from scratch and succeeds.
	store := &fakeAggregateStore{errs: []error{errors.New("view busy")}}
	cfg := RefresherConfig{Interval: 10 * time.Millisecond}

	r := NewRefresher(cfg, store, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop(context.Background())

	waitFor(t, func() bool { return r.Stats().Refreshes >= 1 }, "refresher never recovered")

	stats := r.Stats()
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if store.callCount() < 2 {
		t.Errorf("calls = %d, want >= 2", store.callCount())
	}
}

func TestRefresher_Lifecycle(t *testing.T) {
	r := NewRefresher(DefaultRefresherConfig(), &fakeAggregateStore{}, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
