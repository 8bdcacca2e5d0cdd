package billing

import "math"

// ProRate computes the amount due when moving from one plan to another with
// daysRemaining of unused time in the current cycle. The unused fraction of
// the old plan's price is credited against the new plan's price; the result
// never goes below zero.
//
// The function is pure and keeps full float precision: rounding to cents
// happens only at presentation (Round2) so repeated calculations cannot
// accumulate rounding error.
func ProRate(from, to Plan, daysRemaining int) float64 {
	cycle := from.CycleDays()
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	if daysRemaining > cycle {
		daysRemaining = cycle
	}

	credit := from.Price * float64(daysRemaining) / float64(cycle)
	due := to.Price - credit
	if due < 0 {
		return 0
	}
	return due
}

// Round2 rounds a BRL amount to cents for display and for the amount sent to
// the gateway, which only accepts two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
