// Package scale implements the price↔pixel projection (spec C12): mapping
// between a decimal price domain and an integer screen-coordinate range
// given a center price/point, tick size, and pixels-per-tick zoom level.
// Ground truth: the original implementation's scale and px_per_tick models.
package scale

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const debounce = 100 * time.Millisecond

// Scale holds the projection parameters. The projection arithmetic is done
// in decimal.Decimal throughout, with no float64 step; a result is turned
// into an int pixel coordinate only at the end.
type Scale struct {
	mu sync.Mutex

	centralPrice decimal.Decimal
	centralPoint int
	tickSize     decimal.Decimal

	choices    []int // ascending pixels-per-tick steps, e.g. {2,4,8,16,32}
	choiceIdx  int
	lastChange time.Time
}

// New returns a Scale centered at centralPrice/centralPoint with the given
// tick size and ordered set of allowed pixels-per-tick zoom levels.
// pxPerTickDefault must appear in choices.
func New(centralPrice decimal.Decimal, centralPoint int, tickSize decimal.Decimal, choices []int, pxPerTickDefault int) *Scale {
	idx := 0
	for i, c := range choices {
		if c == pxPerTickDefault {
			idx = i
			break
		}
	}
	return &Scale{
		centralPrice: centralPrice,
		centralPoint: centralPoint,
		tickSize:     tickSize,
		choices:      choices,
		choiceIdx:    idx,
	}
}

// PxPerTick returns the current zoom level.
func (s *Scale) PxPerTick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choices[s.choiceIdx]
}

// PriceToPx maps a price to its y pixel coordinate:
// central_point + ((central_price - p) / tick_size * px_per_tick), rounded
// toward zero.
func (s *Scale) PriceToPx(p decimal.Decimal) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tickSize.IsZero() {
		return s.centralPoint
	}
	ticks := s.centralPrice.Sub(p).Div(s.tickSize)
	px := ticks.Mul(decimal.NewFromInt(int64(s.choices[s.choiceIdx])))
	return s.centralPoint + int(px.IntPart())
}

// PxToPrice maps a y pixel coordinate back to a price:
// central_price - (y - central_point) * tick_size / px_per_tick.
func (s *Scale) PxToPrice(y int) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	pxPerTick := s.choices[s.choiceIdx]
	if pxPerTick == 0 {
		return s.centralPrice
	}
	offset := decimal.NewFromInt(int64(y - s.centralPoint))
	delta := offset.Mul(s.tickSize).Div(decimal.NewFromInt(int64(pxPerTick)))
	return s.centralPrice.Sub(delta)
}

// ScaleIn steps to the next (larger) pixels-per-tick entry, debounced to at
// most once per 100ms of wall time.
func (s *Scale) ScaleIn() {
	s.step(1)
}

// ScaleOut steps to the prior (smaller) pixels-per-tick entry, debounced to
// at most once per 100ms of wall time.
func (s *Scale) ScaleOut() {
	s.step(-1)
}

func (s *Scale) step(direction int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastChange) <= debounce {
		return
	}
	next := s.choiceIdx + direction
	if next < 0 || next >= len(s.choices) {
		return
	}
	s.choiceIdx = next
	s.lastChange = time.Now()
}

// AdjustCenter recenters CentralPrice to currentPrice if the projected
// distance between them has drifted at least height/4 pixels.
func (s *Scale) AdjustCenter(currentPrice decimal.Decimal, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tickSize.IsZero() {
		return
	}
	ticks := currentPrice.Sub(s.centralPrice).Div(s.tickSize).Abs()
	px := ticks.Mul(decimal.NewFromInt(int64(s.choices[s.choiceIdx])))
	if px.GreaterThanOrEqual(decimal.NewFromInt(int64(height / 4))) {
		s.centralPrice = currentPrice
	}
}

// CentralPrice returns the current center price.
func (s *Scale) CentralPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.centralPrice
}
