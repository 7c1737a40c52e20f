package domain

import "github.com/shopspring/decimal"

// Monetary values flow through the engines as raw decimals so that
// intermediate bases are never rounded. FinalizeAmount applies the single
// rounding rule of the system - half-up to 2 fractional digits - and is
// called exactly once per tax line item (or emitted opportunity value),
// at the point the value is finalized.
//
// All amounts in this system are non-negative, so decimal.Round (half away
// from zero) is equivalent to half-up here.
func FinalizeAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
