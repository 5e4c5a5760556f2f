package dto

import (
	"encoding/json"
	"strings"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type RegisterCustomerRequest struct {
	FirstName     string          `json:"first_name" example:"Ada"`
	LastName      string          `json:"last_name" example:"Lovelace"`
	Age           int             `json:"age" example:"36"`
	MonthlyIncome decimal.Decimal `json:"monthly_income" swaggertype:"number" example:"50000"`
	PhoneNumber   string          `json:"phone_number" example:"9876543210"`
}

func (r *RegisterCustomerRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return apperrors.NewValidationError("first_name", "cannot be empty")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return apperrors.NewValidationError("phone_number", "cannot be empty")
	}
	return nil
}

func (r *RegisterCustomerRequest) ToInput() customer.RegisterInput {
	return customer.RegisterInput{
		FirstName:     strings.TrimSpace(r.FirstName),
		LastName:      strings.TrimSpace(r.LastName),
		Age:           r.Age,
		MonthlyIncome: r.MonthlyIncome,
		PhoneNumber:   strings.TrimSpace(r.PhoneNumber),
	}
}

type CustomerResponse struct {
	CustomerID    int64       `json:"customer_id" example:"1"`
	Name          string      `json:"name" example:"Ada Lovelace"`
	Age           int         `json:"age" example:"36"`
	MonthlyIncome json.Number `json:"monthly_income" swaggertype:"number" example:"50000.00"`
	ApprovedLimit json.Number `json:"approved_limit" swaggertype:"number" example:"1800000.00"`
	PhoneNumber   string      `json:"phone_number" example:"9876543210"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		CustomerID:    cust.CustomerID,
		Name:          cust.FullName(),
		Age:           cust.Age,
		MonthlyIncome: money(cust.MonthlySalary),
		ApprovedLimit: money(cust.ApprovedLimit),
		PhoneNumber:   cust.PhoneNumber,
	}
}
