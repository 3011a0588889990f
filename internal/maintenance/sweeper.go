package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// OrderSweepStore deletes expired order rows.
type OrderSweepStore interface {
	DeleteExpiredOrders(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}

// SweeperConfig holds expiry-sweep tuning.
type SweeperConfig struct {
	Interval  time.Duration // Time between sweeps (default: 15m)
	Retention time.Duration // Orders not updated within this window are stale (default: 24h)
}

// DefaultSweeperConfig returns sensible defaults.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:  15 * time.Minute,
		Retention: 24 * time.Hour,
	}
}

// Sweeper periodically deletes market orders that have expired or gone stale.
type Sweeper struct {
	cfg    SweeperConfig
	store  OrderSweepStore
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics SweeperMetrics
}

// SweeperMetrics contains sweep counters, cumulative since start.
type SweeperMetrics struct {
	Sweeps      int64
	RowsDeleted int64
	Errors      int64
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(cfg SweeperConfig, store OrderSweepStore, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Start begins the sweep loop. The first sweep runs a full interval after
// start: maintenance stays off the ingestion warm-up path.
func (s *Sweeper) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("expiry sweeper started",
		"interval", s.cfg.Interval,
		"retention", s.cfg.Retention,
	)
	return nil
}

// Stop shuts the sweeper down.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("expiry sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current metrics.
func (s *Sweeper) Stats() SweeperMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one delete cycle. Errors are logged, never fatal.
func (s *Sweeper) sweep() {
	start := time.Now()

	deleted, err := s.store.DeleteExpiredOrders(s.ctx, start, s.cfg.Retention)
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		s.mu.Lock()
		s.metrics.Errors++
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.metrics.Sweeps++
	s.metrics.RowsDeleted += deleted
	s.mu.Unlock()

	s.logger.Info("expiry sweep completed",
		"rows_deleted", deleted,
		"duration", time.Since(start),
	)
}
