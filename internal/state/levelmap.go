package state

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LevelMap is a strictly-ordered price→quantity map. It never holds a
// zero-quantity entry: inserting quantity zero deletes the level. Go has no
// built-in ordered map, and book depths are small (at most a few hundred
// levels), so a sorted slice kept in order on insert/remove is simpler and
// lighter than a general-purpose balanced tree.
type LevelMap struct {
	prices []decimal.Decimal
	qty    map[string]decimal.Decimal
}

// NewLevelMap returns an empty level map.
func NewLevelMap() *LevelMap {
	return &LevelMap{qty: make(map[string]decimal.Decimal)}
}

// Set inserts or overwrites the quantity at price; quantity zero removes
// the level entirely.
func (m *LevelMap) Set(price, qty decimal.Decimal) {
	key := price.String()
	if qty.IsZero() {
		if _, ok := m.qty[key]; ok {
			delete(m.qty, key)
			m.removePrice(price)
		}
		return
	}
	if _, exists := m.qty[key]; !exists {
		m.insertPrice(price)
	}
	m.qty[key] = qty
}

func (m *LevelMap) insertPrice(price decimal.Decimal) {
	i := sort.Search(len(m.prices), func(i int) bool { return !m.prices[i].LessThan(price) })
	m.prices = append(m.prices, decimal.Decimal{})
	copy(m.prices[i+1:], m.prices[i:])
	m.prices[i] = price
}

func (m *LevelMap) removePrice(price decimal.Decimal) {
	i := sort.Search(len(m.prices), func(i int) bool { return !m.prices[i].LessThan(price) })
	if i < len(m.prices) && m.prices[i].Equal(price) {
		m.prices = append(m.prices[:i], m.prices[i+1:]...)
	}
}

// Get returns the quantity resting at price, and whether it exists.
func (m *LevelMap) Get(price decimal.Decimal) (decimal.Decimal, bool) {
	q, ok := m.qty[price.String()]
	return q, ok
}

// Min returns the lowest price currently present.
func (m *LevelMap) Min() (decimal.Decimal, bool) {
	if len(m.prices) == 0 {
		return decimal.Decimal{}, false
	}
	return m.prices[0], true
}

// Max returns the highest price currently present.
func (m *LevelMap) Max() (decimal.Decimal, bool) {
	if len(m.prices) == 0 {
		return decimal.Decimal{}, false
	}
	return m.prices[len(m.prices)-1], true
}

// Level is one resting price/quantity pair.
type Level struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// TopNAsc returns up to n levels starting from the lowest price, raw
// (unbucketed) — used by Flow, which has no tick grid to align to.
func (m *LevelMap) TopNAsc(n int) []Level {
	out := make([]Level, 0, n)
	for i := 0; i < len(m.prices) && i < n; i++ {
		p := m.prices[i]
		out = append(out, Level{Price: p, Qty: m.qty[p.String()]})
	}
	return out
}

// BucketsAsc aggregates the map onto n fixed tick-wide buckets starting at
// the best (lowest) price floored to the tick grid, ascending — the ask
// side's get_asks(n, tick_size). Gaps in the raw book appear as zero-qty
// buckets at their grid price.
func (m *LevelMap) BucketsAsc(n int, tick decimal.Decimal) []Level {
	out := make([]Level, n)
	best, ok := m.Min()
	if !ok || tick.IsZero() {
		return out
	}
	gridBase := best.Div(tick).Floor().Mul(tick)
	for i := range out {
		out[i] = Level{Price: gridBase.Add(tick.Mul(decimal.NewFromInt(int64(i))))}
	}
	for _, p := range m.prices {
		idx := p.Sub(gridBase).Div(tick).Floor()
		if idx.GreaterThanOrEqual(decimal.NewFromInt(int64(n))) {
			break
		}
		i := int(idx.IntPart())
		out[i].Qty = out[i].Qty.Add(m.qty[p.String()])
	}
	return out
}

// BucketsDesc aggregates the map onto n fixed tick-wide buckets starting at
// the best (highest) price floored to the tick grid, descending — the bid
// side's get_bids(n, tick_size). Each level counts toward the bucket at its
// price rounded down to the grid.
func (m *LevelMap) BucketsDesc(n int, tick decimal.Decimal) []Level {
	out := make([]Level, n)
	best, ok := m.Max()
	if !ok || tick.IsZero() {
		return out
	}
	gridBase := best.Div(tick).Floor().Mul(tick)
	for i := range out {
		out[i] = Level{Price: gridBase.Sub(tick.Mul(decimal.NewFromInt(int64(i))))}
	}
	for i := len(m.prices) - 1; i >= 0; i-- {
		p := m.prices[i]
		idx := gridBase.Sub(p).Div(tick).Ceil()
		if idx.IsNegative() || idx.GreaterThanOrEqual(decimal.NewFromInt(int64(n))) {
			break
		}
		j := int(idx.IntPart())
		out[j].Qty = out[j].Qty.Add(m.qty[p.String()])
	}
	return out
}

// Clear empties the map.
func (m *LevelMap) Clear() {
	m.prices = nil
	m.qty = make(map[string]decimal.Decimal)
}

// Len returns the number of resting levels.
func (m *LevelMap) Len() int { return len(m.prices) }
