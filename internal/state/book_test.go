package state

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestBookInitSnapshot(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.InitSnapshot(
		[]Level{{Price: d("100"), Qty: d("1")}, {Price: d("99"), Qty: d("2")}},
		[]Level{{Price: d("101"), Qty: d("1")}},
	)

	bid, ask, ok := b.BestBidAsk()
	if !ok {
		t.Fatal("BestBidAsk() ok = false, want true")
	}
	if !bid.Equal(d("100")) {
		t.Errorf("bid = %s, want 100", bid)
	}
	if !ask.Equal(d("101")) {
		t.Errorf("ask = %s, want 101", ask)
	}
}

func TestBookUpdateRemovesZeroQty(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.UpdateBid(d("100"), d("1"))
	b.UpdateBid(d("100"), d("0"))

	if _, ok := b.Bid(); ok {
		t.Errorf("Bid() ok = true after zero-qty update, want false")
	}
}

func TestBookSnapshotReconciliationScenario(t *testing.T) {
	t.Parallel()

	// Scenario 1 from the spec: buffered deltas u=5..8 arrive, then a
	// snapshot with U=6 arrives; deltas with u<=U are dropped, u=7,8 apply.
	type delta struct {
		u     int
		price decimal.Decimal
		qty   decimal.Decimal
	}
	buffered := []delta{
		{5, d("100"), d("1")},
		{6, d("100"), d("2")},
		{7, d("100"), d("3")},
		{8, d("100"), d("4")},
	}

	b := NewBook()
	snapshotU := 6
	b.InitSnapshot([]Level{{Price: d("100"), Qty: d("1")}}, []Level{{Price: d("101"), Qty: d("1")}})

	for _, dl := range buffered {
		if dl.u <= snapshotU {
			continue // dropped as stale
		}
		b.UpdateBid(dl.price, dl.qty)
	}

	bid, ok := b.Bid()
	if !ok {
		t.Fatal("Bid() ok = false, want true")
	}
	if !bid.Equal(d("100")) {
		t.Errorf("bid price = %s, want 100", bid)
	}
	qty, _ := b.bids.Get(d("100"))
	if !qty.Equal(d("4")) {
		t.Errorf("bid qty after reconciliation = %s, want 4 (only u=7,8 applied)", qty)
	}
}

func TestBookGetAsksBucketsToTickGrid(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.InitSnapshot(nil, []Level{
		{Price: d("100"), Qty: d("1")},
		{Price: d("100.5"), Qty: d("2")},
		{Price: d("102"), Qty: d("5")},
	})

	got := b.GetAsks(4, d("1"))
	want := []Level{
		{Price: d("100"), Qty: d("3")},
		{Price: d("101"), Qty: d("0")},
		{Price: d("102"), Qty: d("5")},
		{Price: d("103"), Qty: d("0")},
	}

	if len(got) != len(want) {
		t.Fatalf("GetAsks() returned %d buckets, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Price.Equal(want[i].Price) || !got[i].Qty.Equal(want[i].Qty) {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBookGetBidsBucketsToTickGrid(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.InitSnapshot([]Level{
		{Price: d("99"), Qty: d("1")},
		{Price: d("98"), Qty: d("2")},
		{Price: d("96"), Qty: d("5")},
	}, nil)

	got := b.GetBids(4, d("1"))
	want := []Level{
		{Price: d("99"), Qty: d("1")},
		{Price: d("98"), Qty: d("2")},
		{Price: d("97"), Qty: d("0")},
		{Price: d("96"), Qty: d("5")},
	}

	if len(got) != len(want) {
		t.Fatalf("GetBids() returned %d buckets, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Price.Equal(want[i].Price) || !got[i].Qty.Equal(want[i].Qty) {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBookUpdateIdempotent(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.UpdateBid(d("100"), d("5"))
	b.UpdateBid(d("100"), d("5"))

	qty, ok := b.bids.Get(d("100"))
	if !ok || !qty.Equal(d("5")) {
		t.Errorf("qty after repeated identical update = %v, ok=%v, want 5, true", qty, ok)
	}
}
