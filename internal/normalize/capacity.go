package normalize

import "github.com/shopspring/decimal"

var (
	// FullDayHours is the number of hours that count as one full day.
	FullDayHours = decimal.NewFromInt(8)
	fullDay      = decimal.NewFromInt(1)
)

// Capacity derives the full-day equivalent of a logged hours value: 1.0 from
// eight hours up, otherwise hours/8 rounded half-to-even to two places.
// Every source format goes through this one rule.
func Capacity(hours decimal.Decimal) decimal.Decimal {
	if hours.GreaterThanOrEqual(FullDayHours) {
		return fullDay
	}
	return hours.Div(FullDayHours).RoundBank(2)
}
