package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTimestampConversions(t *testing.T) {
	t.Parallel()

	ts := FromMillis(1_700_000_123_456)
	if got, want := ts.Seconds(), int64(1_700_000_123); got != want {
		t.Errorf("Seconds() = %d, want %d", got, want)
	}
	if got, want := ts.Millis(), int64(1_700_000_123_000); got != want {
		t.Errorf("Millis() = %d, want %d", got, want)
	}
}

func TestTimestampOrdering(t *testing.T) {
	t.Parallel()

	a := FromSeconds(100)
	b := FromSeconds(200)
	if !a.Before(b) {
		t.Errorf("a.Before(b) = false, want true")
	}
	if !b.After(a) {
		t.Errorf("b.After(a) = false, want true")
	}
}

func TestIntervalBucketStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		interval Interval
		ts       Timestamp
		want     Timestamp
	}{
		{"1m exact", Interval1m, FromSeconds(120), FromSeconds(120)},
		{"1m mid-bucket", Interval1m, FromSeconds(125), FromSeconds(120)},
		{"1h mid-bucket", Interval1h, FromSeconds(3700), FromSeconds(3600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.interval.BucketStart(tt.ts); got != tt.want {
				t.Errorf("BucketStart(%d) = %d, want %d", tt.ts, got, tt.want)
			}
		})
	}
}

func TestCandleIsBullish(t *testing.T) {
	t.Parallel()

	c := Candle{Open: decimal.NewFromInt(100), Close: decimal.NewFromInt(105)}
	if !c.IsBullish() {
		t.Errorf("IsBullish() = false, want true")
	}

	c2 := Candle{Open: decimal.NewFromInt(105), Close: decimal.NewFromInt(100)}
	if c2.IsBullish() {
		t.Errorf("IsBullish() = true, want false")
	}
}

func TestSymbolTuneQuantity(t *testing.T) {
	t.Parallel()

	sym := Symbol{
		Slug:        "BTCUSDT",
		TickSize:    decimal.NewFromFloat(0.01),
		StepSize:    decimal.NewFromFloat(0.001),
		MinNotional: decimal.NewFromInt(10),
	}

	tests := []struct {
		name  string
		qty   decimal.Decimal
		price decimal.Decimal
	}{
		{"already meets notional", decimal.NewFromFloat(0.01), decimal.NewFromInt(50000)},
		{"below notional, raises", decimal.NewFromFloat(0.0001), decimal.NewFromInt(50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sym.TuneQuantity(tt.qty, tt.price)
			notional := out.Mul(tt.price)
			if notional.LessThan(sym.MinNotional) {
				t.Errorf("TuneQuantity(%s, %s) = %s, notional %s < min %s", tt.qty, tt.price, out, notional, sym.MinNotional)
			}
			units := out.Div(sym.StepSize)
			if !units.Truncate(0).Equal(units) {
				t.Errorf("TuneQuantity(%s, %s) = %s is not a multiple of step %s", tt.qty, tt.price, out, sym.StepSize)
			}
		})
	}
}
