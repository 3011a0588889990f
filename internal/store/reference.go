package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aodata/market-ingest/internal/model"
)

// Reference upserts the static reference tables (locations, items, localized
// text). These run once at startup and are idempotent: conflicts are ignored.
type Reference struct {
	db *pgxpool.Pool
}

// NewReference creates a reference store backed by the given pool.
func NewReference(db *pgxpool.Pool) *Reference {
	return &Reference{db: db}
}

// UpsertLocations inserts locations, ignoring rows that already exist.
func (s *Reference) UpsertLocations(ctx context.Context, locations []model.Location) error {
	batch := &pgx.Batch{}
	for _, loc := range locations {
		batch.Queue(
			`INSERT INTO location (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			loc.ID, loc.Name,
		)
	}
	return s.sendBatch(ctx, batch, "locations")
}

// UpsertItems inserts items, ignoring rows that already exist.
func (s *Reference) UpsertItems(ctx context.Context, items []model.Item) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(
			`INSERT INTO item (unique_name) VALUES ($1) ON CONFLICT DO NOTHING`,
			item.UniqueName,
		)
	}
	return s.sendBatch(ctx, batch, "items")
}

// UpsertLocalizedNames inserts localized item names, ignoring existing rows.
func (s *Reference) UpsertLocalizedNames(ctx context.Context, names []model.LocalizedText) error {
	return s.upsertLocalizedText(ctx, "localized_name", names)
}

// UpsertLocalizedDescriptions inserts localized item descriptions, ignoring
// existing rows.
func (s *Reference) UpsertLocalizedDescriptions(ctx context.Context, descriptions []model.LocalizedText) error {
	return s.upsertLocalizedText(ctx, "localized_description", descriptions)
}

// localizedTextSQL covers both localized tables; they share the same column
// layout. The statement is built over the explicit record type once, never
// per field.
const localizedTextSQL = ` (
	item_unique_name,
	en_us, de_de, fr_fr, ru_ru, pl_pl, es_es, pt_br,
	it_it, zh_cn, ko_kr, ja_jp, zh_tw, id_id, tr_tr, ar_sa)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT DO NOTHING`

func (s *Reference) upsertLocalizedText(ctx context.Context, table string, rows []model.LocalizedText) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue("INSERT INTO "+table+localizedTextSQL,
			row.ItemUniqueName,
			row.EnUS, row.DeDE, row.FrFR, row.RuRU, row.PlPL, row.EsES, row.PtBR,
			row.ItIT, row.ZhCN, row.KoKR, row.JaJP, row.ZhTW, row.IDID, row.TrTR, row.ArSA,
		)
	}
	return s.sendBatch(ctx, batch, table)
}

// sendBatch runs the queued inserts inside one transaction.
func (s *Reference) sendBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert %s: %w", what, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
