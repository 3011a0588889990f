package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AggregateStore recomputes the derived aggregate views.
type AggregateStore interface {
	RefreshAggregates(ctx context.Context) error
}

// RefresherConfig holds aggregate-refresh tuning.
type RefresherConfig struct {
	Interval time.Duration // Time between refresh cycles (default: 10m)
}

// DefaultRefresherConfig returns sensible defaults.
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval: 10 * time.Minute,
	}
}

// Refresher periodically recomputes the materialized aggregate caches the
// read-side serves. A failed cycle rolls back store-side and the next tick
// retries from scratch.
type Refresher struct {
	cfg    RefresherConfig
	store  AggregateStore
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics RefresherMetrics
}

// RefresherMetrics contains refresh counters, cumulative since start.
type RefresherMetrics struct {
	Refreshes int64
	Errors    int64
}

// NewRefresher creates an aggregate refresher.
func NewRefresher(cfg RefresherConfig, store AggregateStore, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Start begins the refresh loop.
func (r *Refresher) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("aggregate refresher started", "interval", r.cfg.Interval)
	return nil
}

// Stop shuts the refresher down.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("aggregate refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current metrics.
func (r *Refresher) Stats() RefresherMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

func (r *Refresher) refresh() {
	start := time.Now()

	if err := r.store.RefreshAggregates(r.ctx); err != nil {
		r.logger.Error("aggregate refresh failed", "error", err)
		r.mu.Lock()
		r.metrics.Errors++
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.metrics.Refreshes++
	r.mu.Unlock()

	r.logger.Info("aggregates refreshed", "duration", time.Since(start))
}
