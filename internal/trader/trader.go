// Package trader translates trade intents (market/limit/stop/flat/reverse)
// into parameterized order requests, sized from the most recent top-of-book
// and a configurable size multiplier. Ground truth: the original
// implementation's trader module.
package trader

import (
	"sync"

	"github.com/nullpx/derivterm/internal/orders"
	"github.com/nullpx/derivterm/pkg/types"
	"github.com/shopspring/decimal"
)

// Trader holds one symbol's sizing configuration and order book, and turns
// intents into NewOrder requests.
type Trader struct {
	mu sync.RWMutex

	symbol types.Symbol
	orders *orders.Orders

	sizeMultipliers     [4]int
	sizeMultiplierIndex int
	sizeQuote           decimal.Decimal

	cachedSizeBase *decimal.Decimal
	cachedAtBid    decimal.Decimal

	bid *decimal.Decimal
	ask *decimal.Decimal

	stopLossPnL *decimal.Decimal
}

// New returns a Trader for symbol, sizing orders as sizeQuote (in quote
// currency) scaled by one of multipliers, selected by index.
func New(symbol types.Symbol, sizeQuote decimal.Decimal, multipliers [4]int) *Trader {
	return &Trader{
		symbol:          symbol,
		orders:          orders.New(),
		sizeMultipliers: multipliers,
		sizeQuote:       sizeQuote,
	}
}

// Orders exposes the underlying local order set for lifecycle consumption
// and queries.
func (t *Trader) Orders() *orders.Orders { return t.orders }

// SetBidAsk records the latest top-of-book. A nil argument preserves the
// previously known value rather than clearing it, matching the source's
// "only overwrite if Some" semantics — a momentary one-sided book update
// must not erase the other side's last known price.
func (t *Trader) SetBidAsk(bid, ask *decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bid != nil {
		t.bid = bid
		if t.cachedSizeBase != nil && !t.cachedAtBid.Equal(*bid) {
			t.cachedSizeBase = nil
		}
	}
	if ask != nil {
		t.ask = ask
	}
}

// SetSizeMultiplierIndex selects which of the four configured multipliers
// WorkSize uses. Values outside [0,3] are clamped.
func (t *Trader) SetSizeMultiplierIndex(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 {
		i = 0
	}
	if i > 3 {
		i = 3
	}
	t.sizeMultiplierIndex = i
}

// SizeMultiplier returns the currently selected multiplier value.
func (t *Trader) SizeMultiplier() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sizeMultipliers[t.sizeMultiplierIndex]
}

// Lots returns the configured multiplier options.
func (t *Trader) Lots() [4]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sizeMultipliers
}

// SingleSize returns the base-currency quantity for one "lot": sizeQuote
// converted at the current bid and tuned to the symbol's step/notional
// grid. The result is cached until the bid changes. Returns false if bid is
// unknown.
func (t *Trader) SingleSize() (decimal.Decimal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bid == nil {
		return decimal.Decimal{}, false
	}
	if t.cachedSizeBase != nil {
		return *t.cachedSizeBase, true
	}
	qty := t.symbol.TuneQuantity(t.sizeQuote.Div(*t.bid), *t.bid)
	t.cachedSizeBase = &qty
	t.cachedAtBid = *t.bid
	return qty, true
}

// WorkSize returns SingleSize multiplied by the selected size multiplier.
func (t *Trader) WorkSize() (decimal.Decimal, bool) {
	single, ok := t.SingleSize()
	if !ok {
		return decimal.Decimal{}, false
	}
	mult := decimal.NewFromInt(int64(t.SizeMultiplier()))
	return single.Mul(mult), true
}

// MarketBuy returns a market buy for the current work size.
func (t *Trader) MarketBuy() (*types.NewOrder, bool) {
	qty, ok := t.WorkSize()
	if !ok {
		return nil, false
	}
	return &types.NewOrder{Kind: types.OrderMarket, Side: types.Buy, Quantity: qty}, true
}

// MarketSell returns a market sell for the current work size.
func (t *Trader) MarketSell() (*types.NewOrder, bool) {
	qty, ok := t.WorkSize()
	if !ok {
		return nil, false
	}
	return &types.NewOrder{Kind: types.OrderMarket, Side: types.Sell, Quantity: qty}, true
}

// Limit returns a limit order at price: Buy if price is below the current
// bid, Sell otherwise. Crossing the spread is the caller's responsibility —
// post-only is not enforced.
func (t *Trader) Limit(price decimal.Decimal) (*types.NewOrder, bool) {
	qty, ok := t.WorkSize()
	if !ok {
		return nil, false
	}
	t.mu.RLock()
	bid := t.bid
	t.mu.RUnlock()
	if bid == nil {
		return nil, false
	}
	side := types.Sell
	if price.LessThan(*bid) {
		side = types.Buy
	}
	p := price
	return &types.NewOrder{Kind: types.OrderLimit, Side: side, Quantity: qty, Price: &p}, true
}

// Stop returns a stop order at price, with the side inverted relative to
// Limit: Sell if price is below the current bid, Buy otherwise — a stop
// triggers into the market in the direction away from the trigger.
func (t *Trader) Stop(price decimal.Decimal) (*types.NewOrder, bool) {
	qty, ok := t.WorkSize()
	if !ok {
		return nil, false
	}
	t.mu.RLock()
	bid := t.bid
	t.mu.RUnlock()
	if bid == nil {
		return nil, false
	}
	side := types.Buy
	if price.LessThan(*bid) {
		side = types.Sell
	}
	p := price
	return &types.NewOrder{Kind: types.OrderStop, Side: side, Quantity: qty, Price: &p}, true
}

// Flat returns a market order opposite the current base balance, sized to
// exactly close it. Returns false if the balance is already zero.
func (t *Trader) Flat() (*types.NewOrder, bool) {
	balance := t.orders.BaseBalance()
	if balance.IsZero() {
		return nil, false
	}
	side := types.Sell
	if balance.IsNegative() {
		side = types.Buy
	}
	return &types.NewOrder{Kind: types.OrderMarket, Side: side, Quantity: balance.Abs()}, true
}

// Reverse returns a market order opposite the current base balance, sized
// to close it and open an equal position in the other direction (2x the
// absolute balance). Returns false if the balance is already zero.
func (t *Trader) Reverse() (*types.NewOrder, bool) {
	balance := t.orders.BaseBalance()
	if balance.IsZero() {
		return nil, false
	}
	side := types.Sell
	if balance.IsNegative() {
		side = types.Buy
	}
	return &types.NewOrder{Kind: types.OrderMarket, Side: side, Quantity: balance.Abs().Mul(decimal.NewFromInt(2))}, true
}

// ConsumeOrder applies an order update to the local order set, returning
// whether it transitioned an order to Filled.
func (t *Trader) ConsumeOrder(update types.Order) bool {
	return t.orders.Consume(update)
}

// PnL returns realized + mark-to-market PnL at the trader's current bid/ask.
func (t *Trader) PnL() decimal.Decimal {
	t.mu.RLock()
	bid, ask := t.bid, t.ask
	t.mu.RUnlock()
	return t.orders.PnL(bid, ask)
}

// Commission returns cumulative commission paid.
func (t *Trader) Commission() decimal.Decimal {
	return t.orders.Commission()
}

// OpenOrders returns all locally-tracked Pending orders.
func (t *Trader) OpenOrders() []types.Order {
	return t.orders.Open()
}

// LastClosedOrder returns the most recently filled order, if any.
func (t *Trader) LastClosedOrder() (types.Order, bool) {
	return t.orders.LastClosed()
}

// SetStopLossPnL configures the PnL target used by StopLossPrice.
func (t *Trader) SetStopLossPnL(pnl *decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLossPnL = pnl
}

// StopLossPrice returns the price at which closing the current position
// would realize the configured stop-loss PnL against the position's entry
// price. ok is false if no stop-loss PnL is configured or the position is
// flat.
func (t *Trader) StopLossPrice() (decimal.Decimal, bool) {
	t.mu.RLock()
	sl := t.stopLossPnL
	t.mu.RUnlock()
	if sl == nil {
		return decimal.Decimal{}, false
	}
	if _, ok := t.orders.EntryPrice(); !ok {
		return decimal.Decimal{}, false
	}
	return t.orders.PriceAtPnL(*sl)
}
