package credit

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxScore = 100

	onTimeWeight    = 30
	loanCountWeight = 20
	loanCountStep   = 2
	activeYearScore = 20
	idleYearScore   = 10
	volumeWeight    = 20
)

// LoanRecord is the slice of a loan the scorer and engine look at.
type LoanRecord struct {
	Amount             decimal.Decimal
	MonthlyInstallment decimal.Decimal
	Tenure             int
	PaidOnTime         int
	StartDate          time.Time
	EndDate            time.Time
}

// IsActive reports whether the loan has not yet ended as of today.
func (l LoanRecord) IsActive(today time.Time) bool {
	return !DateOf(l.EndDate).Before(DateOf(today))
}

// Applicant is a customer together with a snapshot of their loans.
type Applicant struct {
	MonthlySalary decimal.Decimal
	ApprovedLimit decimal.Decimal
	Loans         []LoanRecord
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Score rates the applicant's loan history on a 0-100 scale.
func Score(a Applicant, today time.Time) int {
	if len(a.Loans) == 0 {
		return MaxScore
	}

	var (
		totalEMIs, onTime int64
		totalAmount       = decimal.Zero
		activeAmount      = decimal.Zero
		activeThisYear    bool
	)
	for _, l := range a.Loans {
		totalEMIs += int64(l.Tenure)
		onTime += int64(l.PaidOnTime)
		totalAmount = totalAmount.Add(l.Amount)
		if l.IsActive(today) {
			activeAmount = activeAmount.Add(l.Amount)
		}
		if l.StartDate.Year() == today.Year() {
			activeThisYear = true
		}
	}

	if activeAmount.GreaterThan(a.ApprovedLimit) {
		return 0
	}

	onTimeScore := decimal.NewFromInt(onTimeWeight)
	if totalEMIs > 0 {
		onTimeScore = decimal.NewFromInt(onTime * onTimeWeight).Div(decimal.NewFromInt(totalEMIs))
	}

	countScore := int64(loanCountWeight - loanCountStep*len(a.Loans))
	if countScore < 0 {
		countScore = 0
	}

	activityScore := int64(idleYearScore)
	if activeThisYear {
		activityScore = activeYearScore
	}

	volumeScore := decimal.Zero
	if a.ApprovedLimit.IsPositive() {
		volumeScore = decimal.Min(
			totalAmount.Mul(decimal.NewFromInt(volumeWeight)).Div(a.ApprovedLimit),
			decimal.NewFromInt(volumeWeight),
		)
	}

	total := onTimeScore.
		Add(decimal.NewFromInt(countScore)).
		Add(decimal.NewFromInt(activityScore)).
		Add(volumeScore)
	return int(total.Floor().IntPart())
}
