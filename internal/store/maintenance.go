package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// aggregateViews are the materialized counts the read-side serves; the
// refresher recomputes them in this order, all in one transaction.
var aggregateViews = []string{
	"market_orders_count_by_location",
	"market_orders_count_by_updated_at",
	"market_orders_count_by_updated_at_and_location",
	"market_orders_count_by_created_at",
	"market_orders_count_by_created_at_and_location",
}

// Maintenance runs the periodic store-side cleanup operations.
type Maintenance struct {
	db *pgxpool.Pool
}

// NewMaintenance creates a maintenance store backed by the given pool.
func NewMaintenance(db *pgxpool.Pool) *Maintenance {
	return &Maintenance{db: db}
}

// DeleteExpiredOrders removes market orders whose expiry has passed or whose
// last update is older than the retention window, in one transaction.
// Returns the number of rows deleted.
//
// A sweep may race a batch upsert on overlapping rows; last-committed-wins is
// fine because a just-upserted, still-valid row does not match the predicate.
func (s *Maintenance) DeleteExpiredOrders(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`DELETE FROM market_order WHERE expires_at < $1 OR updated_at < $2`,
		now.UTC(), now.UTC().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return ct.RowsAffected(), nil
}

// RefreshAggregates recomputes every derived aggregate view in sequence
// within one transaction. A failure rolls the whole cycle back; the caller's
// next tick retries from scratch.
func (s *Maintenance) RefreshAggregates(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, view := range aggregateViews {
		if _, err := tx.Exec(ctx, "REFRESH MATERIALIZED VIEW "+view); err != nil {
			return fmt.Errorf("refresh %s: %w", view, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
