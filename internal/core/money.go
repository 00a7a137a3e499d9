// Package core holds the domain types and the derived-state computations
// shared by the HTTP handlers, the scheduler and the notification worker:
// amount normalization, budget classification, recurring dueness and the
// sorting/filtering of fetched record sets.
package core

import "math"

// AmountInput carries the raw amount fields of a transaction entry form.
// Foreign selects between the two entry modes: when set, the base amount is
// derived from OriginalAmount and ExchangeRate; otherwise Amount is taken
// as the base-currency value directly.
type AmountInput struct {
	Amount         float64
	OriginalAmount float64
	ExchangeRate   float64
	Foreign        bool
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeAmount resolves a single authoritative base-currency amount from
// either entry mode. It is a pure function: recomputing with unchanged
// inputs yields the same output, so callers may re-run it on every field
// change. Zero or non-finite amounts and non-positive rates are rejected,
// never coerced.
func NormalizeAmount(in AmountInput) (float64, error) {
	if in.Foreign {
		if in.OriginalAmount == 0 || !finite(in.OriginalAmount) {
			return 0, ErrInvalidAmount
		}
		if in.ExchangeRate <= 0 || !finite(in.ExchangeRate) {
			return 0, ErrInvalidRate
		}
		return Round2(in.OriginalAmount * in.ExchangeRate), nil
	}
	if in.Amount == 0 || !finite(in.Amount) {
		return 0, ErrInvalidAmount
	}
	return Round2(in.Amount), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
