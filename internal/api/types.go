package api

import "time"

// Snapshot is the read-only view of one worker's state, served by
// /api/snapshot and pushed over /ws. This is the concrete form of spec.md
// §1's "core exposes read-locked snapshots... through a narrow interface":
// the renderer itself is out of scope, but the interface it would consume
// is exercised here as an HTTP/WS surface.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Symbol SymbolInfo `json:"symbol"`

	Candles      []CandleDTO  `json:"candles"`
	Book         BookDTO      `json:"book"`
	Flow         FlowDTO      `json:"flow"`
	OpenInterest []OIPointDTO `json:"open_interest"`
	Orders       []OrderDTO   `json:"orders"`
	PnL          string       `json:"pnl"`
	Commission   string       `json:"commission"`
	Status       StatusDTO    `json:"status"`
}

// SymbolInfo is the instrument metadata the venue resolved at startup.
type SymbolInfo struct {
	Slug        string `json:"slug"`
	TickSize    string `json:"tick_size"`
	StepSize    string `json:"step_size"`
	MinNotional string `json:"min_notional"`
}

// CandleDTO is one OHLCV bucket, decimals rendered as strings to preserve
// precision over JSON.
type CandleDTO struct {
	OpenTime int64  `json:"open_time"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// LevelDTO is one price/quantity pair from the book or the tape.
type LevelDTO struct {
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// BookDTO is the top of the order book plus depth, and connectivity.
type BookDTO struct {
	Bids   []LevelDTO `json:"bids"`
	Asks   []LevelDTO `json:"asks"`
	Online bool       `json:"online"`
}

// FlowDTO is the aggregated order-flow tape: recent buys and sells.
type FlowDTO struct {
	Buys  []LevelDTO `json:"buys"`
	Sells []LevelDTO `json:"sells"`
}

// OIPointDTO is one open-interest sample.
type OIPointDTO struct {
	Time  int64  `json:"time"`
	Value string `json:"value"`
}

// OrderDTO is one local order-lifecycle record.
type OrderDTO struct {
	ID               string  `json:"id"`
	Kind             string  `json:"kind"`
	Side             string  `json:"side"`
	Status           string  `json:"status"`
	Quantity         string  `json:"quantity"`
	ExecutedQuantity string  `json:"executed_quantity"`
	Price            *string `json:"price,omitempty"`
	AveragePrice     *string `json:"average_price,omitempty"`
	Commission       string  `json:"commission"`
	Timestamp        int64   `json:"timestamp"`
}

// StatusDTO mirrors internal/logs.Status for JSON transport.
type StatusDTO struct {
	Kind    string `json:"kind"` // "ok", "warning", "critical"
	Message string `json:"message,omitempty"`
}
