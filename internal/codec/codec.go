package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aodata/market-ingest/internal/model"
)

// expiresLayout matches the feed's naive timestamps, e.g.
// "2024-03-01T12:00:09" or "2024-03-01T12:00:09.123".
const expiresLayout = "2006-01-02T15:04:05.999999999"

// tickMillisOffset converts .NET ticks (100ns units since year 1) to Unix
// milliseconds: millis = ticks/10000 - tickMillisOffset.
const tickMillisOffset = 62136892800000

// DecodeError reports a malformed or unparseable payload. The record is
// dropped; decoding never aborts the caller.
type DecodeError struct {
	Field string // Field that failed to convert, empty for whole-payload failures
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode: field %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// orderWire is the wire format for market-order messages.
type orderWire struct {
	ID               json.Number `json:"Id"`
	ItemTypeID       string      `json:"ItemTypeId"`
	ItemGroupTypeID  string      `json:"ItemGroupTypeId"`
	LocationID       json.Number `json:"LocationId"`
	QualityLevel     json.Number `json:"QualityLevel"`
	EnchantmentLevel json.Number `json:"EnchantmentLevel"`
	UnitPriceSilver  json.Number `json:"UnitPriceSilver"`
	Amount           json.Number `json:"Amount"`
	AuctionType      string      `json:"AuctionType"`
	Expires          string      `json:"Expires"`
}

// historiesWire is the wire format for trade-history messages. One message
// carries a series of buckets for a single (item, location, quality,
// timescale).
type historiesWire struct {
	AlbionID       json.Number `json:"AlbionId"`
	AlbionIDString string      `json:"AlbionIdString"`
	LocationID     json.Number `json:"LocationId"`
	QualityLevel   json.Number `json:"QualityLevel"`
	Timescale      json.Number `json:"Timescale"`
	Histories      []struct {
		ItemAmount   json.Number `json:"ItemAmount"`
		SilverAmount json.Number `json:"SilverAmount"`
		Timestamp    json.Number `json:"Timestamp"`
	} `json:"MarketHistories"`
}

// ParseOrder parses a raw market-order payload into a model.MarketOrder.
// CreatedAt and UpdatedAt are both set to now; the store preserves the
// original created_at on conflict.
func ParseOrder(payload []byte, now time.Time) (model.MarketOrder, error) {
	var wire orderWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return model.MarketOrder{}, &DecodeError{Err: err}
	}

	id, err := wire.ID.Int64()
	if err != nil {
		return model.MarketOrder{}, &DecodeError{Field: "Id", Err: err}
	}
	locationID, err := wire.LocationID.Int64()
	if err != nil {
		return model.MarketOrder{}, &DecodeError{Field: "LocationId", Err: err}
	}
	quality, err := toInt32(wire.QualityLevel)
	if err != nil {
		return model.MarketOrder{}, &DecodeError{Field: "QualityLevel", Err: err}
	}
	enchantment, err := toInt32(wire.EnchantmentLevel)
	if err != nil {
		return model.MarketOrder{}, &DecodeError{Field: "EnchantmentLevel", Err: err}
	}
	price, err := toInt32(wire.UnitPriceSilver)
	if err != nil {
		return model.MarketOrder{}, &DecodeError{Field: "UnitPriceSilver", Err: err}
	}
	amount, err := toInt32(wire.Amount)
	if err != nil {
		return model.MarketOrder{}, &DecodeError{Field: "Amount", Err: err}
	}

	// A bad expiry drops the whole record, not just the field.
	expiresAt, err := time.Parse(expiresLayout, wire.Expires)
	if err != nil {
		return model.MarketOrder{}, &DecodeError{Field: "Expires", Err: err}
	}

	now = now.UTC()

	return model.MarketOrder{
		ID:               id,
		ItemUniqueName:   wire.ItemTypeID,
		LocationID:       model.FormatLocationID(locationID),
		QualityLevel:     quality,
		EnchantmentLevel: enchantment,
		UnitPriceSilver:  price,
		Amount:           amount,
		AuctionType:      wire.AuctionType,
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ParseHistories parses a raw trade-history payload into one MarketHistory
// row per bucket in the message's series.
func ParseHistories(payload []byte, now time.Time) ([]model.MarketHistory, error) {
	var wire historiesWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, &DecodeError{Err: err}
	}

	locationID, err := wire.LocationID.Int64()
	if err != nil {
		return nil, &DecodeError{Field: "LocationId", Err: err}
	}
	quality, err := toInt32(wire.QualityLevel)
	if err != nil {
		return nil, &DecodeError{Field: "QualityLevel", Err: err}
	}
	timescale, err := toInt32(wire.Timescale)
	if err != nil {
		return nil, &DecodeError{Field: "Timescale", Err: err}
	}

	now = now.UTC()
	location := model.FormatLocationID(locationID)

	rows := make([]model.MarketHistory, 0, len(wire.Histories))
	for _, bucket := range wire.Histories {
		ticks, err := bucket.Timestamp.Int64()
		if err != nil {
			return nil, &DecodeError{Field: "Timestamp", Err: err}
		}
		itemAmount, err := toInt32(bucket.ItemAmount)
		if err != nil {
			return nil, &DecodeError{Field: "ItemAmount", Err: err}
		}
		silverAmount, err := toInt32(bucket.SilverAmount)
		if err != nil {
			return nil, &DecodeError{Field: "SilverAmount", Err: err}
		}

		rows = append(rows, model.MarketHistory{
			ItemUniqueName: wire.AlbionIDString,
			LocationID:     location,
			QualityLevel:   quality,
			Timescale:      timescale,
			Timestamp:      tickTime(ticks),
			ItemAmount:     itemAmount,
			SilverAmount:   silverAmount,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	return rows, nil
}

// tickTime converts a .NET tick count into a UTC time.Time.
func tickTime(ticks int64) time.Time {
	return time.UnixMilli(ticks/10000 - tickMillisOffset).UTC()
}

// toInt32 converts a loosely-typed wire number into a fixed-width integer.
func toInt32(n json.Number) (int32, error) {
	v, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}
