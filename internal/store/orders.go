package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aodata/market-ingest/internal/model"
)

// Orders writes market-order batches to the market_order table.
type Orders struct {
	db *pgxpool.Pool
}

// NewOrders creates an order store backed by the given pool.
func NewOrders(db *pgxpool.Pool) *Orders {
	return &Orders{db: db}
}

const upsertOrdersSQL = `
INSERT INTO market_order (
	id,
	item_unique_name,
	location_id,
	quality_level,
	enchantment_level,
	unit_price_silver,
	amount,
	auction_type,
	expires_at,
	created_at,
	updated_at)
SELECT * FROM UNNEST(
	$1::BIGINT[],
	$2::VARCHAR[],
	$3::VARCHAR[],
	$4::INT[],
	$5::INT[],
	$6::INT[],
	$7::INT[],
	$8::VARCHAR[],
	$9::TIMESTAMP[],
	$10::TIMESTAMP[],
	$11::TIMESTAMP[])
ON CONFLICT (id) DO
	UPDATE SET
		unit_price_silver = EXCLUDED.unit_price_silver,
		amount = EXCLUDED.amount,
		expires_at = EXCLUDED.expires_at,
		updated_at = EXCLUDED.updated_at`

// Upsert writes the batch in one statement inside one transaction and
// returns the number of rows affected. Callers must have deduplicated the
// batch: UNNEST with duplicate keys would make the same upsert target a row
// twice within one command.
func (s *Orders) Upsert(ctx context.Context, orders []model.MarketOrder) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(orders))
	itemNames := make([]string, len(orders))
	locationIDs := make([]string, len(orders))
	qualityLevels := make([]int32, len(orders))
	enchantmentLevels := make([]int32, len(orders))
	unitPrices := make([]int32, len(orders))
	amounts := make([]int32, len(orders))
	auctionTypes := make([]string, len(orders))
	expiresAts := make([]time.Time, len(orders))
	createdAts := make([]time.Time, len(orders))
	updatedAts := make([]time.Time, len(orders))

	for i, o := range orders {
		ids[i] = o.ID
		itemNames[i] = o.ItemUniqueName
		locationIDs[i] = o.LocationID
		qualityLevels[i] = o.QualityLevel
		enchantmentLevels[i] = o.EnchantmentLevel
		unitPrices[i] = o.UnitPriceSilver
		amounts[i] = o.Amount
		auctionTypes[i] = o.AuctionType
		expiresAts[i] = o.ExpiresAt
		createdAts[i] = o.CreatedAt
		updatedAts[i] = o.UpdatedAt
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, upsertOrdersSQL,
		ids,
		itemNames,
		locationIDs,
		qualityLevels,
		enchantmentLevels,
		unitPrices,
		amounts,
		auctionTypes,
		expiresAts,
		createdAts,
		updatedAts,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert market orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return ct.RowsAffected(), nil
}
