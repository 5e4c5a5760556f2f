package handler

import (
	"context"
	"io"
	"log/slog"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CheckEligibility(ctx context.Context, req loan.Request) (*loan.EligibilityResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*loan.EligibilityResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req loan.Request) (*loan.CreateLoanResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*loan.CreateLoanResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.LoanDetail, error) {
	args := m.Called(ctx, loanID)
	if res, ok := args.Get(0).(*loan.LoanDetail); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListActiveLoans(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	args := m.Called(ctx, customerID)
	if res, ok := args.Get(0).([]loan.Loan); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) RecomputeAllDebts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) RegisterCustomer(ctx context.Context, input customer.RegisterInput) (*customer.Customer, error) {
	args := m.Called(ctx, input)
	if res, ok := args.Get(0).(*customer.Customer); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if res, ok := args.Get(0).(*customer.Customer); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockImportTrigger struct {
	mock.Mock
}

func (m *MockImportTrigger) Trigger(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
