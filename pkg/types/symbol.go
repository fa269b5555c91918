package types

import "github.com/shopspring/decimal"

// Symbol is the tradable-instrument metadata a venue reports: the price and
// quantity grid, and the minimum order value.
type Symbol struct {
	Slug        string
	TickSize    decimal.Decimal
	StepSize    decimal.Decimal
	MinNotional decimal.Decimal
}

// TuneQuantity rounds qty down to the step-size grid, floors it at one step,
// and — if the resulting notional value falls short of MinNotional — raises
// it to the smallest step-aligned quantity that clears MinNotional at price.
//
// Rounding toward zero to a number's own scale is a no-op on that number, so
// the step/tick grids are read from the decimal scale of StepSize/TickSize
// themselves, matching the grid each venue reports.
func (s Symbol) TuneQuantity(quantity, price decimal.Decimal) decimal.Decimal {
	stepScale := s.StepSize.Exponent()
	if stepScale > 0 {
		stepScale = 0
	}
	qty := quantity.Truncate(-stepScale)
	if qty.LessThan(s.StepSize) {
		qty = s.StepSize
	}

	if price.IsZero() {
		return qty
	}

	tickScale := s.TickSize.Exponent()
	if tickScale > 0 {
		tickScale = 0
	}
	total := qty.Mul(price).Truncate(-tickScale)

	if total.LessThan(s.MinNotional) {
		raised := s.MinNotional.Div(price)
		raised = ceilToStep(raised, s.StepSize, -stepScale)
		if raised.LessThan(s.StepSize) {
			raised = s.StepSize
		}
		return raised
	}
	return qty
}

// ceilToStep rounds v up to the nearest multiple of step, expressed to the
// given decimal scale.
func ceilToStep(v, step decimal.Decimal, scale int32) decimal.Decimal {
	if step.IsZero() {
		return v.Truncate(scale)
	}
	units := v.Div(step).Ceil()
	return units.Mul(step).Truncate(scale)
}
