package dto

import (
	"encoding/json"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// LoanRequest is the body shared by /check-eligibility and /create-loan.
type LoanRequest struct {
	CustomerID   int64           `json:"customer_id" example:"1"`
	LoanAmount   decimal.Decimal `json:"loan_amount" swaggertype:"number" example:"100000"`
	InterestRate decimal.Decimal `json:"interest_rate" swaggertype:"number" example:"12"`
	Tenure       int             `json:"tenure" example:"12"`
}

func (r *LoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return apperrors.NewValidationError("customer_id", "must be positive")
	}
	if r.Tenure <= 0 {
		return apperrors.NewValidationError("tenure", "must be positive")
	}
	return nil
}

func (r *LoanRequest) ToDomain() loan.Request {
	return loan.Request{
		CustomerID:   r.CustomerID,
		Amount:       r.LoanAmount,
		InterestRate: r.InterestRate,
		Tenure:       r.Tenure,
	}
}

type EligibilityResponse struct {
	CustomerID            int64        `json:"customer_id" example:"1"`
	Approval              bool         `json:"approval" example:"true"`
	InterestRate          json.Number  `json:"interest_rate" swaggertype:"number" example:"12.5"`
	CorrectedInterestRate *json.Number `json:"corrected_interest_rate" swaggertype:"number" example:"12.5"`
	Tenure                int          `json:"tenure" example:"12"`
	MonthlyInstallment    json.Number  `json:"monthly_installment" swaggertype:"number" example:"8884.88"`
}

func NewEligibilityResponse(res *loan.EligibilityResult) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            res.CustomerID,
		Approval:              res.Approved,
		InterestRate:          rate(res.InterestRate),
		CorrectedInterestRate: nullRate(res.CorrectedInterestRate),
		Tenure:                res.Tenure,
		MonthlyInstallment:    money(res.MonthlyInstallment),
	}
}

type CreateLoanResponse struct {
	LoanID             *int64      `json:"loan_id" example:"42"`
	CustomerID         int64       `json:"customer_id" example:"1"`
	LoanApproved       bool        `json:"loan_approved" example:"true"`
	Message            string      `json:"message" example:"Loan approved"`
	MonthlyInstallment json.Number `json:"monthly_installment" swaggertype:"number" example:"8884.88"`
}

func NewCreateLoanResponse(res *loan.CreateLoanResult) CreateLoanResponse {
	return CreateLoanResponse{
		LoanID:             res.LoanID,
		CustomerID:         res.CustomerID,
		LoanApproved:       res.Approved,
		Message:            res.Message,
		MonthlyInstallment: money(res.MonthlyInstallment),
	}
}

type LoanCustomer struct {
	ID          int64  `json:"id" example:"1"`
	FirstName   string `json:"first_name" example:"Ada"`
	LastName    string `json:"last_name" example:"Lovelace"`
	PhoneNumber string `json:"phone_number" example:"9876543210"`
	Age         int    `json:"age" example:"36"`
}

type LoanDetailResponse struct {
	LoanID             int64        `json:"loan_id" example:"42"`
	Customer           LoanCustomer `json:"customer"`
	LoanAmount         json.Number  `json:"loan_amount" swaggertype:"number" example:"100000.00"`
	InterestRate       json.Number  `json:"interest_rate" swaggertype:"number" example:"12.5"`
	MonthlyInstallment json.Number  `json:"monthly_installment" swaggertype:"number" example:"8884.88"`
	Tenure             int          `json:"tenure" example:"12"`
}

func NewLoanDetailResponse(detail *loan.LoanDetail) LoanDetailResponse {
	l, c := detail.Loan, detail.Customer
	return LoanDetailResponse{
		LoanID: l.ID,
		Customer: LoanCustomer{
			ID:          c.CustomerID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			PhoneNumber: c.PhoneNumber,
			Age:         c.Age,
		},
		LoanAmount:         money(l.Amount),
		InterestRate:       rate(l.InterestRate),
		MonthlyInstallment: money(l.MonthlyInstallment),
		Tenure:             l.Tenure,
	}
}

type LoanSummaryResponse struct {
	LoanID             int64       `json:"loan_id" example:"42"`
	LoanAmount         json.Number `json:"loan_amount" swaggertype:"number" example:"100000.00"`
	InterestRate       json.Number `json:"interest_rate" swaggertype:"number" example:"12.5"`
	MonthlyInstallment json.Number `json:"monthly_installment" swaggertype:"number" example:"8884.88"`
	RepaymentsLeft     int         `json:"repayments_left" example:"9"`
}

func NewLoanSummaryResponses(loans []loan.Loan) []LoanSummaryResponse {
	resp := make([]LoanSummaryResponse, 0, len(loans))
	for i := range loans {
		l := &loans[i]
		resp = append(resp, LoanSummaryResponse{
			LoanID:             l.ID,
			LoanAmount:         money(l.Amount),
			InterestRate:       rate(l.InterestRate),
			MonthlyInstallment: money(l.MonthlyInstallment),
			RepaymentsLeft:     l.RepaymentsLeft(),
		})
	}
	return resp
}

type ImportAcceptedResponse struct {
	Status  string `json:"status" example:"accepted"`
	Message string `json:"message" example:"Data import started"`
}
