package model

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Market Types
// -----------------------------------------------------------------------------

// MarketOrder represents one active sell/buy listing on a market board.
//
// ID is the natural key: every later sighting of the same ID overwrites the
// mutable fields (UnitPriceSilver, Amount, ExpiresAt, UpdatedAt) in place and
// leaves CreatedAt and the identity fields untouched.
type MarketOrder struct {
	ID               int64     // Primary key, stable across updates to the same listing
	ItemUniqueName   string    // Item identifier (e.g. "T4_BAG")
	LocationID       string    // Zero-padded location code (e.g. "0007")
	QualityLevel     int32     // 1-5
	EnchantmentLevel int32     // 0-4
	UnitPriceSilver  int32     // Price per unit, silver
	Amount           int32     // Units offered/requested
	AuctionType      string    // "offer" or "request"
	ExpiresAt        time.Time // Listing expiry; rows past this are stale
	CreatedAt        time.Time // First sighting, immutable
	UpdatedAt        time.Time // Last sighting
}

// Expired reports whether the order is stale at the given instant, either
// because it has passed its expiry or because it has not been seen within
// the retention window.
func (o MarketOrder) Expired(now time.Time, retention time.Duration) bool {
	return o.ExpiresAt.Before(now) || o.UpdatedAt.Before(now.Add(-retention))
}

// MarketHistory represents aggregated traded volume for one
// (item, location, quality, timescale) over one time bucket.
//
// The natural key is (ItemUniqueName, LocationID, QualityLevel, Timescale,
// Timestamp); a later sighting for the same key overwrites ItemAmount,
// SilverAmount and UpdatedAt only.
type MarketHistory struct {
	ItemUniqueName string    // Item identifier
	LocationID     string    // Zero-padded location code
	QualityLevel   int32     // 1-5
	Timescale      int32     // Bucket granularity code (0=hour, 1=day, 2=week)
	Timestamp      time.Time // Bucket start
	ItemAmount     int32     // Units traded in this bucket
	SilverAmount   int32     // Silver traded in this bucket
	CreatedAt      time.Time // First sighting, immutable
	UpdatedAt      time.Time // Last sighting
}

// Key returns the composite natural key, usable as a map key for dedup.
func (h MarketHistory) Key() HistoryKey {
	return HistoryKey{
		ItemUniqueName: h.ItemUniqueName,
		LocationID:     h.LocationID,
		QualityLevel:   h.QualityLevel,
		Timescale:      h.Timescale,
		Timestamp:      h.Timestamp.Unix(),
	}
}

// HistoryKey is the comparable form of a MarketHistory natural key.
type HistoryKey struct {
	ItemUniqueName string
	LocationID     string
	QualityLevel   int32
	Timescale      int32
	Timestamp      int64 // Unix seconds; bucket starts are whole seconds
}

// FormatLocationID renders a numeric location code to the store's fixed-width
// textual form, zero-padded to 4 characters.
func FormatLocationID(id int64) string {
	return fmt.Sprintf("%04d", id)
}

// -----------------------------------------------------------------------------
// Reference Types
// -----------------------------------------------------------------------------

// Location represents one market location.
type Location struct {
	ID   string // Zero-padded location code
	Name string // Unique name (e.g. "Thetford")
}

// Item represents one tradeable item.
type Item struct {
	UniqueName string
}

// LocalizedText holds one item's text in every supported language. Names and
// descriptions share this shape; they go to different tables.
type LocalizedText struct {
	ItemUniqueName string
	EnUS           string
	DeDE           string
	FrFR           string
	RuRU           string
	PlPL           string
	EsES           string
	PtBR           string
	ItIT           string
	ZhCN           string
	KoKR           string
	JaJP           string
	ZhTW           string
	IDID           string
	TrTR           string
	ArSA           string
}
