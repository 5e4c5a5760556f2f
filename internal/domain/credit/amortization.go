// Package credit holds the pure lending policy: installment maths, the
// history-based credit score and the eligibility decision built on both.
// Nothing here touches storage or the clock; callers pass "today" in.
package credit

import "github.com/shopspring/decimal"

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// MonthlyInstallment returns the unrounded amortized payment for the given
// principal, annual rate in percent and tenure in months. Degenerate inputs
// (principal <= 0 or tenure < 1) yield zero.
func MonthlyInstallment(principal, annualRatePercent decimal.Decimal, tenure int) decimal.Decimal {
	if !principal.IsPositive() || tenure < 1 {
		return decimal.Zero
	}

	n := decimal.NewFromInt(int64(tenure))
	r := annualRatePercent.Div(monthsPerYear).Div(hundred)
	if r.IsZero() {
		return principal.Div(n)
	}

	growth := decimal.NewFromInt(1).Add(r).Pow(n)
	return principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
}

// RoundMoney rounds a monetary value for presentation and storage.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// ApprovedLimit derives the pre-qualified exposure from a monthly salary:
// 36 months of salary rounded to the nearest lakh.
func ApprovedLimit(monthlySalary decimal.Decimal) decimal.Decimal {
	lakh := decimal.NewFromInt(100000)
	return monthlySalary.Mul(decimal.NewFromInt(36)).Div(lakh).RoundBank(0).Mul(lakh)
}
