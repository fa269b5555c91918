package trader

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

func testSymbol() types.Symbol {
	return types.Symbol{
		Slug:        "BTCUSDT",
		TickSize:    dec("0.01"),
		StepSize:    dec("0.001"),
		MinNotional: dec("10"),
	}
}

func TestLimitSideSelection(t *testing.T) {
	t.Parallel()

	tr := New(testSymbol(), dec("100"), [4]int{1, 2, 4, 8})
	tr.SetBidAsk(decPtr("50000"), decPtr("50001"))

	buy, ok := tr.Limit(dec("49000"))
	if !ok || buy.Side != types.Buy {
		t.Errorf("Limit(below bid) side = %v, ok=%v, want Buy, true", buy, ok)
	}

	sell, ok := tr.Limit(dec("51000"))
	if !ok || sell.Side != types.Sell {
		t.Errorf("Limit(above bid) side = %v, ok=%v, want Sell, true", sell, ok)
	}
}

func TestStopSideIsInvertedVsLimit(t *testing.T) {
	t.Parallel()

	tr := New(testSymbol(), dec("100"), [4]int{1, 2, 4, 8})
	tr.SetBidAsk(decPtr("50000"), decPtr("50001"))

	belowBid, ok := tr.Stop(dec("49000"))
	if !ok || belowBid.Side != types.Sell {
		t.Errorf("Stop(below bid) side = %v, ok=%v, want Sell, true", belowBid, ok)
	}

	aboveBid, ok := tr.Stop(dec("51000"))
	if !ok || aboveBid.Side != types.Buy {
		t.Errorf("Stop(above bid) side = %v, ok=%v, want Buy, true", aboveBid, ok)
	}
}

func TestFlatFromShortScenario(t *testing.T) {
	t.Parallel()

	// Scenario 5 from the spec: base balance = -2.5; flat() yields a
	// market buy of qty 2.5.
	tr := New(testSymbol(), dec("100"), [4]int{1, 2, 4, 8})
	tr.ConsumeOrder(types.Order{ID: "1", Status: types.StatusFilled, ExecutedQuantity: dec("2.5"), AveragePrice: decPtr("50000"), Side: types.Sell})

	order, ok := tr.Flat()
	if !ok {
		t.Fatal("Flat() ok = false, want true")
	}
	if order.Kind != types.OrderMarket || order.Side != types.Buy {
		t.Errorf("Flat() = %+v, want Market/Buy", order)
	}
	if !order.Quantity.Equal(dec("2.5")) {
		t.Errorf("Flat() qty = %s, want 2.5", order.Quantity)
	}
}

func TestFlatNoopWhenFlat(t *testing.T) {
	t.Parallel()

	tr := New(testSymbol(), dec("100"), [4]int{1, 2, 4, 8})
	if _, ok := tr.Flat(); ok {
		t.Errorf("Flat() on flat position ok = true, want false")
	}
}

func TestReverseDoublesAbsoluteBalance(t *testing.T) {
	t.Parallel()

	tr := New(testSymbol(), dec("100"), [4]int{1, 2, 4, 8})
	tr.ConsumeOrder(types.Order{ID: "1", Status: types.StatusFilled, ExecutedQuantity: dec("2.5"), AveragePrice: decPtr("50000"), Side: types.Sell})

	order, ok := tr.Reverse()
	if !ok {
		t.Fatal("Reverse() ok = false, want true")
	}
	if !order.Quantity.Equal(dec("5")) {
		t.Errorf("Reverse() qty = %s, want 5", order.Quantity)
	}
}

func TestWorkSizeUnknownWithoutBid(t *testing.T) {
	t.Parallel()

	tr := New(testSymbol(), dec("100"), [4]int{1, 2, 4, 8})
	if _, ok := tr.WorkSize(); ok {
		t.Errorf("WorkSize() ok = true without a known bid, want false")
	}
}

func TestSizeMultiplierIndexClamped(t *testing.T) {
	t.Parallel()

	tr := New(testSymbol(), dec("100"), [4]int{1, 2, 4, 8})
	tr.SetSizeMultiplierIndex(99)
	if got := tr.SizeMultiplier(); got != 8 {
		t.Errorf("SizeMultiplier() after out-of-range index = %d, want 8 (clamped)", got)
	}
}
