package alerts

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestScanGteTriggered(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(dec("100"), Gte)

	fired := a.Scan(dec("90"), dec("110"))

	if len(fired) != 1 || !fired[0].Price.Equal(dec("100")) {
		t.Fatalf("Scan() fired = %v, want one alert at 100", fired)
	}
	last, ok := a.LastTriggered()
	if !ok || !last.Price.Equal(dec("100")) {
		t.Errorf("LastTriggered() = %v, ok=%v, want 100, true", last, ok)
	}
}

func TestScanLteTriggered(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(dec("50"), Lte)

	fired := a.Scan(dec("40"), dec("60"))
	if len(fired) != 1 || !fired[0].Price.Equal(dec("50")) {
		t.Fatalf("Scan() fired = %v, want one alert at 50", fired)
	}
}

func TestScanRemovesFiredAlertsOnly(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(dec("100"), Gte)
	a.Add(dec("200"), Gte)

	fired := a.Scan(dec("90"), dec("150"))
	if len(fired) != 1 {
		t.Fatalf("Scan() fired %d alerts, want 1", len(fired))
	}

	fired2 := a.Scan(dec("90"), dec("250"))
	if len(fired2) != 1 || !fired2[0].Price.Equal(dec("200")) {
		t.Fatalf("second Scan() fired = %v, want the 200 alert", fired2)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(dec("100"), Gte)
	a.Add(dec("50"), Lte)

	a.Clear()

	if fired := a.Scan(dec("0"), dec("1000000")); len(fired) != 0 {
		t.Errorf("Scan() after Clear() fired %v, want none", fired)
	}
	if _, ok := a.LastTriggered(); ok {
		t.Errorf("LastTriggered() after Clear() ok = true, want false")
	}
}
