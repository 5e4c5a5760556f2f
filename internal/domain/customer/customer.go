package customer

import (
	"strings"
	"time"

	"credit-engine/internal/domain/credit"

	"github.com/shopspring/decimal"
)

const (
	MaxNameLength  = 50
	MaxPhoneLength = 15
)

type Customer struct {
	CustomerID    int64           `json:"customerId"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Age           int             `json:"age"`
	PhoneNumber   string          `json:"phoneNumber"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	CurrentDebt   decimal.Decimal `json:"currentDebt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewCustomer builds an unsaved customer with its approved limit derived from salary.
func NewCustomer(firstName, lastName string, age int, monthlySalary decimal.Decimal, phoneNumber string) *Customer {
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlySalary: monthlySalary,
		ApprovedLimit: credit.ApprovedLimit(monthlySalary),
		CurrentDebt:   decimal.Zero,
	}
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Applicant pairs the customer with a loan snapshot for scoring.
func (c *Customer) Applicant(loans []credit.LoanRecord) credit.Applicant {
	return credit.Applicant{
		MonthlySalary: c.MonthlySalary,
		ApprovedLimit: c.ApprovedLimit,
		Loans:         loans,
	}
}
