// Package orders implements the local order lifecycle state machine (spec
// C9): tracking pending-to-filled transitions for orders this process has
// placed, and deriving balance, commission, and PnL from that history.
// Ground truth: the original implementation's orders module.
package orders

import (
	"sync"

	"github.com/nullpx/derivterm/pkg/types"
	"github.com/shopspring/decimal"
)

// Orders is the set of locally-tracked orders for one symbol.
type Orders struct {
	mu     sync.RWMutex
	orders []types.Order
}

// New returns an empty order set.
func New() *Orders {
	return &Orders{}
}

// Consume applies an order update using the three-branch insertion policy:
//  1. An existing Pending order with the same ID is replaced by the update,
//     regardless of the update's IsUpdate flag.
//  2. No existing order with that ID, and IsUpdate is false: insert as new.
//  3. No existing order with that ID, and IsUpdate is true: ignore — this
//     prevents a replayed stream event from fabricating a phantom order.
//
// Returns whether this call transitioned an order to Filled (used by
// callers to trigger a fill alert/sound).
func (o *Orders) Consume(update types.Order) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	isFilled := update.Status == types.StatusFilled

	for i, existing := range o.orders {
		if existing.ID == update.ID {
			if existing.Status == types.StatusPending {
				o.orders[i] = update
				return isFilled
			}
			return false // Filled orders are immutable
		}
	}

	if !update.IsUpdate {
		o.orders = append(o.orders, update)
		return isFilled
	}
	return false
}

// BaseBalance returns the net position: sum of buy executed quantity minus
// sum of sell executed quantity, across all tracked orders.
func (o *Orders) BaseBalance() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.baseBalanceLocked()
}

func (o *Orders) baseBalanceLocked() decimal.Decimal {
	balance := decimal.Zero
	for _, ord := range o.orders {
		if ord.Side == types.Buy {
			balance = balance.Add(ord.ExecutedQuantity)
		} else {
			balance = balance.Sub(ord.ExecutedQuantity)
		}
	}
	return balance
}

// Commission returns the sum of commission across all tracked orders.
func (o *Orders) Commission() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	total := decimal.Zero
	for _, ord := range o.orders {
		total = total.Add(ord.Commission)
	}
	return total
}

// spentReceived computes, from every order with a known average price
// (filled or partially filled), the total quote spent buying and the total
// quote received selling, using each order's average price. This must walk
// the same order set as baseBalanceLocked — a partially-filled order still
// pending has executed quantity in the balance but, until this matches it,
// no acquisition cost, overstating PnL by the residual's full notional.
func (o *Orders) spentReceivedLocked() (spent, received decimal.Decimal) {
	spent, received = decimal.Zero, decimal.Zero
	for _, ord := range o.orders {
		if ord.AveragePrice == nil {
			continue
		}
		value := ord.AveragePrice.Mul(ord.ExecutedQuantity)
		if ord.Side == types.Buy {
			spent = spent.Add(value)
		} else {
			received = received.Add(value)
		}
	}
	return spent, received
}

// PnL computes realized cash (received - spent over every order with a
// known average price, filled or still pending) plus
// mark-to-market of the residual base balance: valued at bid if the
// residual is long, at ask if short. Returns zero if either bid or ask is
// nil (unknown top-of-book).
func (o *Orders) PnL(bid, ask *decimal.Decimal) decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if bid == nil || ask == nil {
		return decimal.Zero
	}

	spent, received := o.spentReceivedLocked()
	balance := o.baseBalanceLocked()

	if balance.IsPositive() {
		received = received.Add(bid.Mul(balance))
	}
	if balance.IsNegative() {
		spent = spent.Add(ask.Mul(balance.Neg()))
	}

	return received.Sub(spent)
}

// Open returns all orders still in the Pending state.
func (o *Orders) Open() []types.Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var open []types.Order
	for _, ord := range o.orders {
		if ord.Status == types.StatusPending {
			open = append(open, ord)
		}
	}
	return open
}

// LastClosed returns the most recently timestamped Filled order with
// non-zero executed quantity.
func (o *Orders) LastClosed() (types.Order, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var best types.Order
	found := false
	for _, ord := range o.orders {
		if ord.Status != types.StatusFilled || ord.ExecutedQuantity.IsZero() {
			continue
		}
		if !found || ord.Timestamp.After(best.Timestamp) {
			best = ord
			found = true
		}
	}
	return best, found
}

// EntryPrice returns the quantity-weighted average entry price of the
// currently open side of the position: spent/bought-qty if long,
// received/sold-qty if short. ok is false if the balance is flat.
func (o *Orders) EntryPrice() (price decimal.Decimal, ok bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	balance := o.baseBalanceLocked()
	if balance.IsZero() {
		return decimal.Zero, false
	}

	spent, received := decimal.Zero, decimal.Zero
	boughtQty, soldQty := decimal.Zero, decimal.Zero
	for _, ord := range o.orders {
		if ord.AveragePrice == nil {
			continue
		}
		value := ord.AveragePrice.Mul(ord.ExecutedQuantity)
		if ord.Side == types.Buy {
			spent = spent.Add(value)
			boughtQty = boughtQty.Add(ord.ExecutedQuantity)
		} else {
			received = received.Add(value)
			soldQty = soldQty.Add(ord.ExecutedQuantity)
		}
	}

	if balance.IsPositive() {
		if boughtQty.IsZero() {
			return decimal.Zero, false
		}
		return spent.Div(boughtQty), true
	}
	if soldQty.IsZero() {
		return decimal.Zero, false
	}
	return received.Div(soldQty), true
}

// PriceAtPnL solves for the exit price that, if the current residual
// balance were closed at that price, would realize the target PnL, given
// the spent/received accumulated so far. ok is false if the balance is
// flat (no price can change a flat position's PnL).
func (o *Orders) PriceAtPnL(target decimal.Decimal) (price decimal.Decimal, ok bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	balance := o.baseBalanceLocked()
	if balance.IsZero() {
		return decimal.Zero, false
	}
	spent, received := o.spentReceivedLocked()
	// target = received' - spent' where the residual balance is priced at `price`.
	// (target - received + spent) / balance = price
	return target.Sub(received).Add(spent).Div(balance), true
}
