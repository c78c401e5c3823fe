package domain

import "github.com/shopspring/decimal"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	monthsPerYear = decimal.NewFromInt(12)
	weeksPerYear  = decimal.NewFromInt(52)
	daysPerYear   = decimal.NewFromInt(365)
)

// RoundCents rounds a monetary value to 2 decimal places, half away from zero.
// Banker's rounding is deliberately not used here.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SimpleInterest returns principal * rate% * years.
// Time is expressed in years because the rate is annual; callers converting
// from months or days must divide before calling (months/12, days/365).
func SimpleInterest(principal, ratePercent, years decimal.Decimal) decimal.Decimal {
	return principal.Mul(ratePercent).Mul(years).Div(hundred)
}

// CompoundInterest returns the interest earned on principal compounded
// compoundingsPerYear times per year over months: P(1+r/n)^(n*t) - P.
func CompoundInterest(principal, ratePercent decimal.Decimal, months int, compoundingsPerYear int) decimal.Decimal {
	r := ratePercent.Div(hundred)
	n := decimal.NewFromInt(int64(compoundingsPerYear))
	t := decimal.NewFromInt(int64(months)).Div(monthsPerYear)

	base := one.Add(r.Div(n))
	amount := principal.Mul(base.Pow(n.Mul(t)))
	return amount.Sub(principal)
}

// EMI returns the equal monthly installment for a loan:
// P*r*(1+r)^n / ((1+r)^n - 1) with monthly rate r = ratePercent/12/100.
// A zero rate is handled as an explicit linear branch (principal/months)
// rather than letting the formula degenerate near r=0.
func EMI(principal, ratePercent decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	r := MonthlyRate(ratePercent)
	if r.IsZero() {
		return RoundCents(principal.Div(n))
	}

	compounded := one.Add(r).Pow(n)
	numerator := principal.Mul(r).Mul(compounded)
	denominator := compounded.Sub(one)
	return RoundCents(numerator.Div(denominator))
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(ratePercent decimal.Decimal) decimal.Decimal {
	return ratePercent.Div(monthsPerYear).Div(hundred)
}

// WeeklyRate converts an annual percentage rate to a weekly fraction.
func WeeklyRate(ratePercent decimal.Decimal) decimal.Decimal {
	return ratePercent.Div(weeksPerYear).Div(hundred)
}

// DailyRate converts an annual percentage rate to a daily fraction.
func DailyRate(ratePercent decimal.Decimal) decimal.Decimal {
	return ratePercent.Div(daysPerYear).Div(hundred)
}
