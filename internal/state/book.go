package state

import (
	"sync"

	"github.com/nullpx/derivterm/pkg/types"
	"github.com/shopspring/decimal"
)

// Book is the order-book mirror for a single symbol: two ordered
// price→quantity maps guarded by a single reader-writer lock, per spec C4.
// No entry holds quantity zero (UpdateBid/UpdateAsk with qty 0 deletes).
type Book struct {
	mu      sync.RWMutex
	bids    *LevelMap
	asks    *LevelMap
	online  bool
	updated types.Timestamp
}

// NewBook returns an empty order book.
func NewBook() *Book {
	return &Book{bids: NewLevelMap(), asks: NewLevelMap()}
}

// InitSnapshot replaces the book's contents wholesale — used when a REST
// snapshot arrives.
func (b *Book) InitSnapshot(bids, asks []Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids.Clear()
	b.asks.Clear()
	for _, l := range bids {
		b.bids.Set(l.Price, l.Qty)
	}
	for _, l := range asks {
		b.asks.Set(l.Price, l.Qty)
	}
	b.online = true
	b.updated = types.Now()
}

// UpdateBid sets or removes (qty==0) a bid level.
func (b *Book) UpdateBid(price, qty decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids.Set(price, qty)
	b.updated = types.Now()
}

// UpdateAsk sets or removes (qty==0) an ask level.
func (b *Book) UpdateAsk(price, qty decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.asks.Set(price, qty)
	b.updated = types.Now()
}

// Bid returns the best (highest) bid price.
func (b *Book) Bid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.Max()
}

// Ask returns the best (lowest) ask price.
func (b *Book) Ask() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.Min()
}

// BestBidAsk returns bid and ask together, with ok false if either side is empty.
func (b *Book) BestBidAsk() (bid, ask decimal.Decimal, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, bok := b.bids.Max()
	ask, aok := b.asks.Min()
	return bid, ask, bok && aok
}

// GetBids returns n buckets of width tick, aligned to the tick grid and
// starting at the best (highest) bid, descending. Buckets over empty price
// ranges come back with zero quantity rather than being skipped.
func (b *Book) GetBids(n int, tick decimal.Decimal) []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.BucketsDesc(n, tick)
}

// GetAsks returns n buckets of width tick, aligned to the tick grid and
// starting at the best (lowest) ask, ascending.
func (b *Book) GetAsks(n int, tick decimal.Decimal) []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.BucketsAsc(n, tick)
}

// SetOnline marks the book's connectivity status.
func (b *Book) SetOnline(online bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.online = online
}

// Online reports whether the backing stream is currently connected.
func (b *Book) Online() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.online
}

// Updated returns the timestamp of the last mutation.
func (b *Book) Updated() types.Timestamp {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updated
}

// IsStale reports whether the book hasn't been updated within maxAge seconds.
func (b *Book) IsStale(maxAgeSeconds int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.updated == 0 {
		return true
	}
	return types.Now().Seconds()-b.updated.Seconds() > maxAgeSeconds
}
