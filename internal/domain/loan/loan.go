package loan

import (
	"fmt"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// DaysPerTenureMonth is the calendar length of one tenure month when deriving end dates.
const DaysPerTenureMonth = 30

type Loan struct {
	ID                 int64
	CustomerID         int64
	Amount             decimal.Decimal
	Tenure             int
	InterestRate       decimal.Decimal
	MonthlyInstallment decimal.Decimal
	EMIsPaidOnTime     int
	StartDate          time.Time
	EndDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewLoan builds an unsaved loan starting on startDate with nothing repaid yet.
func NewLoan(customerID int64, amount, rate decimal.Decimal, tenure int, installment decimal.Decimal, startDate time.Time) *Loan {
	start := credit.DateOf(startDate)
	return &Loan{
		CustomerID:         customerID,
		Amount:             amount,
		Tenure:             tenure,
		InterestRate:       rate,
		MonthlyInstallment: installment,
		EMIsPaidOnTime:     0,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, DaysPerTenureMonth*tenure),
	}
}

func (l *Loan) Validate() error {
	switch {
	case l.CustomerID <= 0:
		return fmt.Errorf("%w: customer id must be positive", apperrors.ErrInvalidArgument)
	case !l.Amount.IsPositive():
		return fmt.Errorf("%w: loan amount must be positive", apperrors.ErrInvalidArgument)
	case l.Tenure < 1:
		return fmt.Errorf("%w: tenure must be at least 1", apperrors.ErrInvalidArgument)
	case l.InterestRate.IsNegative():
		return fmt.Errorf("%w: interest rate must not be negative", apperrors.ErrInvalidArgument)
	case l.MonthlyInstallment.IsNegative():
		return fmt.Errorf("%w: monthly installment must not be negative", apperrors.ErrInvalidArgument)
	case l.EMIsPaidOnTime < 0 || l.EMIsPaidOnTime > l.Tenure:
		return fmt.Errorf("%w: EMIs paid on time must be between 0 and tenure", apperrors.ErrInvalidArgument)
	}
	return nil
}

func (l *Loan) IsActive(today time.Time) bool {
	return l.Record().IsActive(today)
}

func (l *Loan) RepaymentsLeft() int {
	left := l.Tenure - l.EMIsPaidOnTime
	if left < 0 {
		return 0
	}
	return left
}

// RemainingDebt is the scheduled amount still owed on the loan.
func (l *Loan) RemainingDebt() decimal.Decimal {
	return l.MonthlyInstallment.Mul(decimal.NewFromInt(int64(l.RepaymentsLeft())))
}

func (l *Loan) Record() credit.LoanRecord {
	return credit.LoanRecord{
		Amount:             l.Amount,
		MonthlyInstallment: l.MonthlyInstallment,
		Tenure:             l.Tenure,
		PaidOnTime:         l.EMIsPaidOnTime,
		StartDate:          l.StartDate,
		EndDate:            l.EndDate,
	}
}

func Records(loans []Loan) []credit.LoanRecord {
	records := make([]credit.LoanRecord, 0, len(loans))
	for i := range loans {
		records = append(records, loans[i].Record())
	}
	return records
}

// ActiveOn keeps the loans that have not ended as of today, preserving order.
func ActiveOn(loans []Loan, today time.Time) []Loan {
	active := make([]Loan, 0, len(loans))
	for _, l := range loans {
		if l.IsActive(today) {
			active = append(active, l)
		}
	}
	return active
}
