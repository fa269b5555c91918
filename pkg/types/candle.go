package types

import "github.com/shopspring/decimal"

// Candle is a single OHLCV aggregate over one interval bucket.
type Candle struct {
	OpenTime Timestamp
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

// Key implements state.Keyed so Candle can live in a ring buffer keyed by
// its open time.
func (c Candle) Key() Timestamp { return c.OpenTime }

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close.GreaterThan(c.Open)
}

// OpenInterestPoint is one sample of aggregate outstanding contracts.
type OpenInterestPoint struct {
	Time  Timestamp
	Value decimal.Decimal
}

// Key implements state.Keyed.
func (p OpenInterestPoint) Key() Timestamp { return p.Time }
