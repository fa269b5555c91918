package scale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestProjectionRoundTrip(t *testing.T) {
	t.Parallel()

	s := New(dec("50000"), 360, dec("1"), []int{2, 4, 8, 16}, 8)

	tests := []string{"50000", "50010", "49990", "50003"}
	for _, priceStr := range tests {
		p := dec(priceStr)
		px := s.PriceToPx(p)
		back := s.PxToPrice(px)
		diff := back.Sub(p).Abs()
		tolerance := s.tickSize.Div(decimal.NewFromInt(int64(s.PxPerTick())))
		// rounding toward zero can lose up to one px worth of price.
		tolerance = tolerance.Mul(decimal.NewFromInt(2))
		if diff.GreaterThan(tolerance) {
			t.Errorf("round trip for %s: got back %s, diff %s exceeds tolerance %s", priceStr, back, diff, tolerance)
		}
	}
}

func TestScaleInOutStepsAndDebounces(t *testing.T) {
	t.Parallel()

	s := New(dec("100"), 100, dec("1"), []int{2, 4, 8}, 4)
	if got := s.PxPerTick(); got != 4 {
		t.Fatalf("initial PxPerTick() = %d, want 4", got)
	}

	s.ScaleIn()
	if got := s.PxPerTick(); got != 8 {
		t.Errorf("PxPerTick() after ScaleIn = %d, want 8", got)
	}

	// Immediate second call within the debounce window must be a no-op.
	s.ScaleIn()
	if got := s.PxPerTick(); got != 8 {
		t.Errorf("PxPerTick() after immediate second ScaleIn = %d, want 8 (debounced)", got)
	}
}

func TestScaleOutStepsAfterDebounceWindow(t *testing.T) {
	t.Parallel()

	s := New(dec("100"), 100, dec("1"), []int{2, 4, 8}, 4)
	s.lastChange = time.Now().Add(-time.Second)

	s.ScaleOut()
	if got := s.PxPerTick(); got != 2 {
		t.Errorf("PxPerTick() after ScaleOut past debounce = %d, want 2", got)
	}
}

func TestScaleBoundsDoNotWrap(t *testing.T) {
	t.Parallel()

	s := New(dec("100"), 100, dec("1"), []int{2, 4, 8}, 8)
	s.lastChange = time.Now().Add(-time.Second)
	s.ScaleIn() // already at the top of the range
	if got := s.PxPerTick(); got != 8 {
		t.Errorf("PxPerTick() after ScaleIn at top = %d, want 8 (unchanged)", got)
	}
}

func TestAdjustCenterRecentersPastThreshold(t *testing.T) {
	t.Parallel()

	s := New(dec("100"), 100, dec("1"), []int{4}, 4)
	s.AdjustCenter(dec("200"), 40) // 100 ticks * 4px = 400px >= 40/4=10
	if got := s.CentralPrice(); !got.Equal(dec("200")) {
		t.Errorf("CentralPrice() after AdjustCenter = %s, want 200", got)
	}
}

func TestAdjustCenterNoopBelowThreshold(t *testing.T) {
	t.Parallel()

	s := New(dec("100"), 100, dec("1"), []int{1}, 1)
	s.AdjustCenter(dec("100.5"), 1000) // 0.5px << 250px threshold
	if got := s.CentralPrice(); !got.Equal(dec("100")) {
		t.Errorf("CentralPrice() after small drift = %s, want 100 (unchanged)", got)
	}
}
