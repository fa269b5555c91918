package orders

import (
	"testing"

	"github.com/nullpx/derivterm/pkg/types"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func TestConsumeOrderLifecycleScenario(t *testing.T) {
	t.Parallel()

	o := New()

	filled := o.Consume(types.Order{
		ID:               "A",
		Status:           types.StatusPending,
		ExecutedQuantity: dec("0.5"),
		Side:             types.Buy,
		IsUpdate:         false,
	})
	if filled {
		t.Errorf("Consume(pending) returned filled=true, want false")
	}
	if open := o.Open(); len(open) != 1 || open[0].ID != "A" {
		t.Errorf("Open() = %v, want [A]", open)
	}

	filled = o.Consume(types.Order{
		ID:               "A",
		Status:           types.StatusFilled,
		ExecutedQuantity: dec("1.0"),
		AveragePrice:     decPtr("100"),
		Side:             types.Buy,
		IsUpdate:         true,
	})
	if !filled {
		t.Errorf("Consume(filled update) returned filled=false, want true")
	}
	if open := o.Open(); len(open) != 0 {
		t.Errorf("Open() = %v, want empty", open)
	}
	last, ok := o.LastClosed()
	if !ok || last.ID != "A" {
		t.Errorf("LastClosed() = %v, ok=%v, want A, true", last, ok)
	}
	if bal := o.BaseBalance(); !bal.Equal(dec("1.0")) {
		t.Errorf("BaseBalance() = %s, want 1.0", bal)
	}
}

func TestConsumeIgnoresUnknownUpdateInsert(t *testing.T) {
	t.Parallel()

	o := New()
	filled := o.Consume(types.Order{ID: "ghost", Status: types.StatusFilled, IsUpdate: true})
	if filled {
		t.Errorf("Consume(unknown, is_update=true) returned filled=true, want false")
	}
	if len(o.Open()) != 0 {
		t.Errorf("Open() non-empty after ignored phantom insert")
	}
	if _, ok := o.LastClosed(); ok {
		t.Errorf("LastClosed() ok=true after ignored phantom insert")
	}
}

func TestConsumeFilledIsImmutable(t *testing.T) {
	t.Parallel()

	o := New()
	o.Consume(types.Order{ID: "A", Status: types.StatusFilled, ExecutedQuantity: dec("1"), AveragePrice: decPtr("100"), Side: types.Buy})
	o.Consume(types.Order{ID: "A", Status: types.StatusPending, ExecutedQuantity: dec("99"), IsUpdate: true})

	if bal := o.BaseBalance(); !bal.Equal(dec("1")) {
		t.Errorf("BaseBalance() = %s after attempted mutation of filled order, want 1 (unchanged)", bal)
	}
}

func TestPnLMarkToMarketScenario(t *testing.T) {
	t.Parallel()

	// Scenario 4 from the spec: two filled buys at avg 100, qty 1 each;
	// bid=105, ask=106 => pnl = (105*2) - (100*2) = 10.
	o := New()
	o.Consume(types.Order{ID: "1", Status: types.StatusFilled, ExecutedQuantity: dec("1"), AveragePrice: decPtr("100"), Side: types.Buy})
	o.Consume(types.Order{ID: "2", Status: types.StatusFilled, ExecutedQuantity: dec("1"), AveragePrice: decPtr("100"), Side: types.Buy})

	bid, ask := decPtr("105"), decPtr("106")
	pnl := o.PnL(bid, ask)
	if !pnl.Equal(dec("10")) {
		t.Errorf("PnL() = %s, want 10", pnl)
	}
}

func TestPnLCostsPartiallyFilledPendingOrders(t *testing.T) {
	t.Parallel()

	// A partially-filled (or seeded-open) order is still StatusPending but
	// already carries an executed quantity and average price. Its residual
	// is marked-to-market via baseBalanceLocked, so its acquisition cost
	// must be booked too, or PnL double-counts the unrealized leg: one
	// pending buy, executed=1 @ avg 100, bid=105 => pnl = 105 - 100 = 5.
	o := New()
	o.Consume(types.Order{ID: "1", Status: types.StatusPending, ExecutedQuantity: dec("1"), AveragePrice: decPtr("100"), Side: types.Buy})

	pnl := o.PnL(decPtr("105"), decPtr("106"))
	if !pnl.Equal(dec("5")) {
		t.Errorf("PnL() = %s, want 5", pnl)
	}
}

func TestPnLZeroWithoutBothSides(t *testing.T) {
	t.Parallel()

	o := New()
	o.Consume(types.Order{ID: "1", Status: types.StatusFilled, ExecutedQuantity: dec("1"), AveragePrice: decPtr("100"), Side: types.Buy})

	if pnl := o.PnL(nil, decPtr("106")); !pnl.IsZero() {
		t.Errorf("PnL(nil, ask) = %s, want 0", pnl)
	}
}

func TestPnLLinearity(t *testing.T) {
	t.Parallel()

	small := New()
	small.Consume(types.Order{ID: "1", Status: types.StatusFilled, ExecutedQuantity: dec("1"), AveragePrice: decPtr("100"), Side: types.Buy})
	small.Consume(types.Order{ID: "2", Status: types.StatusFilled, ExecutedQuantity: dec("1"), AveragePrice: decPtr("90"), Side: types.Sell})

	big := New()
	big.Consume(types.Order{ID: "1", Status: types.StatusFilled, ExecutedQuantity: dec("2"), AveragePrice: decPtr("100"), Side: types.Buy})
	big.Consume(types.Order{ID: "2", Status: types.StatusFilled, ExecutedQuantity: dec("2"), AveragePrice: decPtr("90"), Side: types.Sell})

	smallPnL := small.PnL(decPtr("95"), decPtr("96"))
	bigPnL := big.PnL(decPtr("95"), decPtr("96"))

	if !bigPnL.Equal(smallPnL.Mul(dec("2"))) {
		t.Errorf("doubled-quantity PnL = %s, want double of %s = %s", bigPnL, smallPnL, smallPnL.Mul(dec("2")))
	}
}
