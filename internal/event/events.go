package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoutingKeyCustomerRegistered = "customer.registered"
	RoutingKeyLoanApproved       = "loan.approved"
	RoutingKeyIngestionCompleted = "ingestion.completed"
)

type Publisher interface {
	PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	PublishLoanApproved(ctx context.Context, event LoanApprovedEvent) error
	PublishIngestionCompleted(ctx context.Context, event IngestionCompletedEvent) error
}

type CustomerRegisteredEvent struct {
	CustomerID    int64           `json:"customerId"`
	Name          string          `json:"name"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	Timestamp     time.Time       `json:"timestamp"`
}

type LoanApprovedEvent struct {
	LoanID             int64           `json:"loanId"`
	CustomerID         int64           `json:"customerId"`
	LoanAmount         decimal.Decimal `json:"loanAmount"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	Tenure             int             `json:"tenure"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	Timestamp          time.Time       `json:"timestamp"`
}

type IngestionCompletedEvent struct {
	Status    string    `json:"status"`
	Customers string    `json:"customers,omitempty"`
	Loans     string    `json:"loans,omitempty"`
	Debts     string    `json:"debts,omitempty"`
	Error     string    `json:"error,omitempty"`
	Duration  string    `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishCustomerRegistered(context.Context, CustomerRegisteredEvent) error {
	return nil
}

func (NoopPublisher) PublishLoanApproved(context.Context, LoanApprovedEvent) error {
	return nil
}

func (NoopPublisher) PublishIngestionCompleted(context.Context, IngestionCompletedEvent) error {
	return nil
}

var _ Publisher = NoopPublisher{}
