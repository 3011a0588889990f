package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aodata/market-ingest/internal/buffer"
	"github.com/aodata/market-ingest/internal/codec"
	"github.com/aodata/market-ingest/internal/model"
)

// OrderStore persists deduplicated order batches.
type OrderStore interface {
	Upsert(ctx context.Context, orders []model.MarketOrder) (int64, error)
}

// OrderProcessor drains raw order payloads from the intake buffer and bulk
// upserts them.
type OrderProcessor struct {
	cfg    Config
	logger *slog.Logger

	// Input from the bus subscriber
	input *buffer.Intake[[]byte]

	// Output
	store OrderStore

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics Metrics
}

// NewOrderProcessor creates an order processor.
func NewOrderProcessor(cfg Config, input *buffer.Intake[[]byte], store OrderStore, logger *slog.Logger) *OrderProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderProcessor{
		cfg:    cfg,
		logger: logger,
		input:  input,
		store:  store,
	}
}

// Start begins the processing loop.
func (p *OrderProcessor) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("order processor started",
		"flush_threshold", p.cfg.FlushThreshold,
		"poll_interval", p.cfg.PollInterval,
	)
	return nil
}

// Stop shuts the processor down. Undrained messages stay in the buffer.
func (p *OrderProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("order processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current metrics.
func (p *OrderProcessor) Stats() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// run polls the buffer size and flushes once it crosses the threshold.
// Errors never escape the loop.
func (p *OrderProcessor) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.input.Len() < p.cfg.FlushThreshold {
				continue
			}
			p.flush()
		}
	}
}

// flush performs one drain cycle: drain, decode+dedup, one bulk upsert.
func (p *OrderProcessor) flush() {
	cycle := uuid.NewString()
	start := time.Now()

	drained := p.input.DrainAll()
	if len(drained) == 0 {
		return
	}

	orders, decodeErrors := p.decode(drained)

	p.mu.Lock()
	p.metrics.MessagesDrained += int64(len(drained))
	p.metrics.DecodeErrors += int64(decodeErrors)
	p.mu.Unlock()

	if len(orders) == 0 {
		p.logger.Warn("order batch empty after decode",
			"cycle", cycle,
			"drained", len(drained),
			"decode_errors", decodeErrors,
		)
		return
	}

	rows, err := p.store.Upsert(p.ctx, orders)
	if err != nil {
		// The batch is dropped; the next cycle only sees new arrivals.
		p.logger.Error("order batch upsert failed",
			"cycle", cycle,
			"error", err,
			"dropped", len(orders),
		)
		p.mu.Lock()
		p.metrics.StoreErrors++
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	p.metrics.Cycles++
	p.metrics.RowsUpserted += rows
	p.mu.Unlock()

	if p.cfg.OnCycle != nil {
		p.cfg.OnCycle(time.Since(start))
	}

	p.logger.Info("order batch flushed",
		"cycle", cycle,
		"drained", len(drained),
		"deduped", len(orders),
		"decode_errors", decodeErrors,
		"rows_affected", rows,
		"duration", time.Since(start),
	)
}

// decode parses the drained payloads and deduplicates latest-wins per order
// ID. Walking the batch back-to-front and keeping the first sighting of each
// ID leaves the occurrence that was pushed last; this is strictly positional,
// not a timestamp comparison.
func (p *OrderProcessor) decode(drained [][]byte) (orders []model.MarketOrder, decodeErrors int) {
	now := time.Now().UTC()
	seen := make(map[int64]struct{}, len(drained))
	orders = make([]model.MarketOrder, 0, len(drained))

	for i := len(drained) - 1; i >= 0; i-- {
		order, err := codec.ParseOrder(drained[i], now)
		if err != nil {
			p.logger.Warn("dropping unparseable order message", "error", err)
			decodeErrors++
			continue
		}
		if _, dup := seen[order.ID]; dup {
			continue
		}
		seen[order.ID] = struct{}{}
		orders = append(orders, order)
	}

	return orders, decodeErrors
}
