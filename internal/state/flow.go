package state

import (
	"sync"

	"github.com/nullpx/derivterm/pkg/types"
	"github.com/shopspring/decimal"
)

// Flow is the order-flow (tape) aggregator: two price→cumulative-quantity
// maps, one per aggressor side, per spec C5. Quantities only ever grow —
// there is no decrement operation. Partitioning a trade into Buy vs Sell is
// a per-venue decision (maker flag, signed size, …) made by the caller
// before Buy/Sell is invoked; Flow itself is venue-agnostic.
type Flow struct {
	mu      sync.RWMutex
	buys    *LevelMap
	sells   *LevelMap
	updated types.Timestamp
}

// NewFlow returns an empty order-flow aggregator.
func NewFlow() *Flow {
	return &Flow{buys: NewLevelMap(), sells: NewLevelMap()}
}

// Buy adds qty to the cumulative buy bucket at price.
func (f *Flow) Buy(price, qty decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, _ := f.buys.Get(price)
	f.buys.Set(price, cur.Add(qty))
	f.updated = types.Now()
}

// Sell adds qty to the cumulative sell bucket at price.
func (f *Flow) Sell(price, qty decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, _ := f.sells.Get(price)
	f.sells.Set(price, cur.Add(qty))
	f.updated = types.Now()
}

// Buys returns the cumulative buy levels, lowest price first.
func (f *Flow) Buys(n int) []Level {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.buys.TopNAsc(n)
}

// Sells returns the cumulative sell levels, lowest price first.
func (f *Flow) Sells(n int) []Level {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sells.TopNAsc(n)
}

// Updated returns the timestamp of the last trade ingested.
func (f *Flow) Updated() types.Timestamp {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.updated
}
