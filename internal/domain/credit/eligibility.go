package credit

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReasonApproved       = "approved"
	ReasonEMILimit       = "current EMIs exceed half of monthly salary"
	ReasonLowCreditScore = "credit score too low"
)

var (
	affordabilityRatio = decimal.RequireFromString("0.5")
	midTierRateFloor   = decimal.NewFromInt(12)
	lowTierRateFloor   = decimal.NewFromInt(16)
)

// Request is a prospective loan.
type Request struct {
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	Tenure       int
}

// Decision is the outcome of Evaluate. CorrectedRate is null on rejection and
// Installment is zero.
type Decision struct {
	Approved      bool
	Score         int
	CorrectedRate decimal.NullDecimal
	Installment   decimal.Decimal
	Reason        string
}

// CurrentEMISum totals the installments of loans still active on today.
func CurrentEMISum(loans []LoanRecord, today time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range loans {
		if l.IsActive(today) {
			sum = sum.Add(l.MonthlyInstallment)
		}
	}
	return sum
}

// Evaluate decides whether the applicant qualifies for req and at which rate.
// It neither mutates its inputs nor reads any other state, so two calls with
// the same arguments return the same Decision.
func Evaluate(a Applicant, req Request, today time.Time) Decision {
	score := Score(a, today)

	if CurrentEMISum(a.Loans, today).GreaterThan(a.MonthlySalary.Mul(affordabilityRatio)) {
		return reject(score, ReasonEMILimit)
	}

	var rate decimal.Decimal
	switch {
	case score > 50:
		rate = req.InterestRate
	case score > 30:
		rate = decimal.Max(req.InterestRate, midTierRateFloor)
	case score > 10:
		rate = decimal.Max(req.InterestRate, lowTierRateFloor)
	default:
		return reject(score, ReasonLowCreditScore)
	}

	return Decision{
		Approved:      true,
		Score:         score,
		CorrectedRate: decimal.NewNullDecimal(rate),
		Installment:   RoundMoney(MonthlyInstallment(req.Amount, rate, req.Tenure)),
		Reason:        ReasonApproved,
	}
}

func reject(score int, reason string) Decision {
	return Decision{
		Score:       score,
		Installment: decimal.Zero,
		Reason:      reason,
	}
}
