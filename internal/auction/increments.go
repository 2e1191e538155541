package auction

import "github.com/shopspring/decimal"

// The increment schedule is fixed for every league. Bands are checked
// in order; the first one the price falls under supplies the step.
var bidSteps = []struct {
	below decimal.Decimal
	step  decimal.Decimal
}{
	{below: decimal.RequireFromString("1"), step: decimal.RequireFromString("0.10")},
	{below: decimal.RequireFromString("2"), step: decimal.RequireFromString("0.20")},
	{below: decimal.RequireFromString("5"), step: decimal.RequireFromString("0.50")},
}

// topStep applies to any price at or above the last band.
var topStep = decimal.RequireFromString("1.00")

// Increment returns the minimum raise over the given price.
func Increment(price decimal.Decimal) decimal.Decimal {
	for _, band := range bidSteps {
		if price.LessThan(band.below) {
			return band.step
		}
	}
	return topStep
}

// RequiredMinimum is the lowest amount the next bid on the item may
// carry: the base price while no bid stands, otherwise the standing bid
// plus its increment.
func RequiredMinimum(it Item) decimal.Decimal {
	if it.HighestBid == nil {
		return it.BasePrice
	}
	return it.HighestBid.Amount.Add(Increment(it.HighestBid.Amount))
}
