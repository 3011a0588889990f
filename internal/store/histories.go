package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aodata/market-ingest/internal/model"
)

// Histories writes trade-history bucket batches to the market_history table.
type Histories struct {
	db *pgxpool.Pool
}

// NewHistories creates a history store backed by the given pool.
func NewHistories(db *pgxpool.Pool) *Histories {
	return &Histories{db: db}
}

const upsertHistoriesSQL = `
INSERT INTO market_history (
	item_unique_name,
	location_id,
	quality_level,
	timescale,
	timestamp,
	item_amount,
	silver_amount,
	created_at,
	updated_at)
SELECT * FROM UNNEST(
	$1::VARCHAR[],
	$2::VARCHAR[],
	$3::INT[],
	$4::INT[],
	$5::TIMESTAMP[],
	$6::INT[],
	$7::INT[],
	$8::TIMESTAMP[],
	$9::TIMESTAMP[])
ON CONFLICT (item_unique_name, location_id, quality_level, timescale, timestamp) DO
	UPDATE SET
		item_amount = EXCLUDED.item_amount,
		silver_amount = EXCLUDED.silver_amount,
		updated_at = EXCLUDED.updated_at`

// Upsert writes the batch in one statement inside one transaction and
// returns the number of rows affected. The batch must be deduplicated on the
// composite natural key. History rows are never deleted by this pipeline.
func (s *Histories) Upsert(ctx context.Context, histories []model.MarketHistory) (int64, error) {
	if len(histories) == 0 {
		return 0, nil
	}

	itemNames := make([]string, len(histories))
	locationIDs := make([]string, len(histories))
	qualityLevels := make([]int32, len(histories))
	timescales := make([]int32, len(histories))
	timestamps := make([]time.Time, len(histories))
	itemAmounts := make([]int32, len(histories))
	silverAmounts := make([]int32, len(histories))
	createdAts := make([]time.Time, len(histories))
	updatedAts := make([]time.Time, len(histories))

	for i, h := range histories {
		itemNames[i] = h.ItemUniqueName
		locationIDs[i] = h.LocationID
		qualityLevels[i] = h.QualityLevel
		timescales[i] = h.Timescale
		timestamps[i] = h.Timestamp
		itemAmounts[i] = h.ItemAmount
		silverAmounts[i] = h.SilverAmount
		createdAts[i] = h.CreatedAt
		updatedAts[i] = h.UpdatedAt
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, upsertHistoriesSQL,
		itemNames,
		locationIDs,
		qualityLevels,
		timescales,
		timestamps,
		itemAmounts,
		silverAmounts,
		createdAts,
		updatedAts,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert market histories: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return ct.RowsAffected(), nil
}
