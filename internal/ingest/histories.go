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

// HistoryStore persists deduplicated history-bucket batches.
type HistoryStore interface {
	Upsert(ctx context.Context, histories []model.MarketHistory) (int64, error)
}

// HistoryProcessor drains raw trade-history payloads from the intake buffer
// and bulk upserts them. One raw message expands into one row per bucket in
// its series.
type HistoryProcessor struct {
	cfg    Config
	logger *slog.Logger

	input *buffer.Intake[[]byte]
	store HistoryStore

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics Metrics
}

// NewHistoryProcessor creates a history processor.
func NewHistoryProcessor(cfg Config, input *buffer.Intake[[]byte], store HistoryStore, logger *slog.Logger) *HistoryProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryProcessor{
		cfg:    cfg,
		logger: logger,
		input:  input,
		store:  store,
	}
}

// Start begins the processing loop.
func (p *HistoryProcessor) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("history processor started",
		"flush_threshold", p.cfg.FlushThreshold,
		"poll_interval", p.cfg.PollInterval,
	)
	return nil
}

// Stop shuts the processor down. Undrained messages stay in the buffer.
func (p *HistoryProcessor) Stop(ctx context.Context) error {
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
		p.logger.Info("history processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current metrics.
func (p *HistoryProcessor) Stats() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

func (p *HistoryProcessor) run() {
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

func (p *HistoryProcessor) flush() {
	cycle := uuid.NewString()
	start := time.Now()

	drained := p.input.DrainAll()
	if len(drained) == 0 {
		return
	}

	histories, decodeErrors := p.decode(drained)

	p.mu.Lock()
	p.metrics.MessagesDrained += int64(len(drained))
	p.metrics.DecodeErrors += int64(decodeErrors)
	p.mu.Unlock()

	if len(histories) == 0 {
		p.logger.Warn("history batch empty after decode",
			"cycle", cycle,
			"drained", len(drained),
			"decode_errors", decodeErrors,
		)
		return
	}

	rows, err := p.store.Upsert(p.ctx, histories)
	if err != nil {
		p.logger.Error("history batch upsert failed",
			"cycle", cycle,
			"error", err,
			"dropped", len(histories),
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

	p.logger.Info("history batch flushed",
		"cycle", cycle,
		"drained", len(drained),
		"rows", len(histories),
		"decode_errors", decodeErrors,
		"rows_affected", rows,
		"duration", time.Since(start),
	)
}

// decode expands and deduplicates the drained payloads latest-wins per
// composite natural key, walking messages and their buckets back-to-front so
// the occurrence pushed last survives.
func (p *HistoryProcessor) decode(drained [][]byte) (histories []model.MarketHistory, decodeErrors int) {
	now := time.Now().UTC()
	seen := make(map[model.HistoryKey]struct{}, len(drained))
	histories = make([]model.MarketHistory, 0, len(drained))

	for i := len(drained) - 1; i >= 0; i-- {
		rows, err := codec.ParseHistories(drained[i], now)
		if err != nil {
			p.logger.Warn("dropping unparseable history message", "error", err)
			decodeErrors++
			continue
		}
		for j := len(rows) - 1; j >= 0; j-- {
			key := rows[j].Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			histories = append(histories, rows[j])
		}
	}

	return histories, decodeErrors
}
