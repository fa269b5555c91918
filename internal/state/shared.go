package state

import (
	"sync"

	"github.com/nullpx/derivterm/pkg/types"
)

// Candles is a concurrency-safe wrapper around a Ring[types.Candle] keyed
// by interval, per spec C3.
type Candles struct {
	mu       sync.RWMutex
	ring     *Ring[types.Candle]
	interval types.Interval
	online   bool
	updated  types.Timestamp
}

// NewCandles returns a Candles buffer with the given capacity and interval.
func NewCandles(capacity int, interval types.Interval) *Candles {
	return &Candles{ring: NewRing[types.Candle](capacity), interval: interval}
}

// Push inserts a candle, applying the ring's overwrite-by-open-time rule.
func (c *Candles) Push(candle types.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring.Push(candle)
	c.online = true
	c.updated = types.Now()
}

// Last returns the most recent candle.
func (c *Candles) Last() (types.Candle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ring.Last()
}

// ToSlice returns all candles oldest-to-newest.
func (c *Candles) ToSlice() []types.Candle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ring.ToSlice()
}

// Capacity returns the configured buffer size.
func (c *Candles) Capacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ring.Capacity()
}

// Interval returns the currently configured aggregation window.
func (c *Candles) Interval() types.Interval {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interval
}

// Clear resets the buffer to a new capacity/interval, discarding history —
// used when the adapter's subscribed interval changes.
func (c *Candles) Clear(capacity int, interval types.Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring.Clear(capacity)
	c.interval = interval
}

// Online reports whether the candle stream is currently connected.
func (c *Candles) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetOnline updates connectivity status.
func (c *Candles) SetOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}

// OpenInterest is a concurrency-safe ring buffer over open-interest samples.
type OpenInterest struct {
	mu      sync.RWMutex
	ring    *Ring[types.OpenInterestPoint]
	online  bool
	updated types.Timestamp
}

// NewOpenInterest returns an OpenInterest buffer with the given capacity.
func NewOpenInterest(capacity int) *OpenInterest {
	return &OpenInterest{ring: NewRing[types.OpenInterestPoint](capacity)}
}

// Push inserts a sample, applying the ring's overwrite-by-time rule.
func (o *OpenInterest) Push(point types.OpenInterestPoint) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ring.Push(point)
	o.online = true
	o.updated = types.Now()
}

// Last returns the most recent sample.
func (o *OpenInterest) Last() (types.OpenInterestPoint, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ring.Last()
}

// ToSlice returns all samples oldest-to-newest.
func (o *OpenInterest) ToSlice() []types.OpenInterestPoint {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ring.ToSlice()
}

// Get returns the value aligned to the requested bucket, or zero if absent.
func (o *OpenInterest) Get(t types.Timestamp) types.OpenInterestPoint {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.ring.Get(t)
	if !ok {
		return types.OpenInterestPoint{Time: t}
	}
	return p
}

// SharedState is the process-wide, read-mostly composite for one adapter
// worker: handles to the candle ring, order book, order flow, and open
// interest ring, each independently locked, per spec C6. Built once by the
// coordinator at worker startup and torn down only at process exit.
type SharedState struct {
	Candles      *Candles
	OrderBook    *Book
	OrderFlow    *Flow
	OpenInterest *OpenInterest
}

// NewSharedState constructs a bundle with fresh, empty containers.
func NewSharedState(candleCapacity int, interval types.Interval, oiCapacity int) *SharedState {
	return &SharedState{
		Candles:      NewCandles(candleCapacity, interval),
		OrderBook:    NewBook(),
		OrderFlow:    NewFlow(),
		OpenInterest: NewOpenInterest(oiCapacity),
	}
}
