package state

import (
	"testing"

	"github.com/nullpx/derivterm/pkg/types"
	"github.com/shopspring/decimal"
)

func candle(openTime int64, close int64) types.Candle {
	return types.Candle{
		OpenTime: types.FromSeconds(openTime),
		Open:     decimal.NewFromInt(close),
		High:     decimal.NewFromInt(close),
		Low:      decimal.NewFromInt(close),
		Close:    decimal.NewFromInt(close),
		Volume:   decimal.Zero,
	}
}

func TestRingPushAndToSlice(t *testing.T) {
	t.Parallel()

	r := NewRing[types.Candle](3)

	r.Push(candle(60, 1))
	r.Push(candle(120, 2))
	r.Push(candle(180, 3))

	got := r.ToSlice()
	if len(got) != 3 {
		t.Fatalf("len(ToSlice()) = %d, want 3", len(got))
	}
	wantTimes := []int64{60, 120, 180}
	for i, w := range wantTimes {
		if got[i].OpenTime.Seconds() != w {
			t.Errorf("ToSlice()[%d].OpenTime = %d, want %d", i, got[i].OpenTime.Seconds(), w)
		}
	}

	// Pushing a new open_time past capacity evicts the oldest.
	r.Push(candle(240, 4))
	got = r.ToSlice()
	if len(got) != 3 {
		t.Fatalf("len(ToSlice()) after eviction = %d, want 3", len(got))
	}
	wantTimes = []int64{120, 180, 240}
	for i, w := range wantTimes {
		if got[i].OpenTime.Seconds() != w {
			t.Errorf("after eviction ToSlice()[%d].OpenTime = %d, want %d", i, got[i].OpenTime.Seconds(), w)
		}
	}
}

func TestRingPushOverwritesSameKey(t *testing.T) {
	t.Parallel()

	r := NewRing[types.Candle](5)
	r.Push(candle(60, 1))
	r.Push(candle(60, 2)) // same open_time: live-tick overwrite, not append

	if r.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", r.Size())
	}
	last, ok := r.Last()
	if !ok {
		t.Fatal("Last() ok = false, want true")
	}
	if !last.Close.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Last().Close = %s, want 2", last.Close)
	}
}

func TestRingLastOnEmpty(t *testing.T) {
	t.Parallel()

	r := NewRing[types.Candle](3)
	if _, ok := r.Last(); ok {
		t.Errorf("Last() on empty ring: ok = true, want false")
	}
}

func TestRingClearResetsCapacity(t *testing.T) {
	t.Parallel()

	r := NewRing[types.Candle](3)
	r.Push(candle(60, 1))
	r.Push(candle(120, 2))

	r.Clear(5)

	if r.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", r.Size())
	}
	if r.Capacity() != 5 {
		t.Errorf("Capacity() after Clear = %d, want 5", r.Capacity())
	}
}
