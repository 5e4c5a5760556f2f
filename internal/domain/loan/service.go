package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	MessageApproved = "Loan approved"
	MessageRejected = "Loan not approved based on credit score or EMI limit"
)

// Request is a loan application as received from a client.
type Request struct {
	CustomerID   int64
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	Tenure       int
}

func (r Request) Validate() error {
	switch {
	case r.CustomerID <= 0:
		return apperrors.NewValidationError("customer_id", "must be positive")
	case !r.Amount.IsPositive():
		return apperrors.NewValidationError("loan_amount", "must be greater than 0")
	case r.InterestRate.IsNegative():
		return apperrors.NewValidationError("interest_rate", "must not be negative")
	case r.Tenure < 1:
		return apperrors.NewValidationError("tenure", "must be at least 1")
	}
	return nil
}

func (r Request) toCredit() credit.Request {
	return credit.Request{Amount: r.Amount, InterestRate: r.InterestRate, Tenure: r.Tenure}
}

type EligibilityResult struct {
	CustomerID            int64
	Approved              bool
	Score                 int
	InterestRate          decimal.Decimal
	CorrectedInterestRate decimal.NullDecimal
	Tenure                int
	MonthlyInstallment    decimal.Decimal
}

type CreateLoanResult struct {
	LoanID             *int64
	CustomerID         int64
	Approved           bool
	Message            string
	MonthlyInstallment decimal.Decimal
}

type LoanDetail struct {
	Loan     Loan
	Customer customer.Customer
}

type LoanService interface {
	CheckEligibility(ctx context.Context, req Request) (*EligibilityResult, error)

	CreateLoan(ctx context.Context, req Request) (*CreateLoanResult, error)

	GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error)

	ListActiveLoans(ctx context.Context, customerID int64) ([]Loan, error)

	RecomputeAllDebts(ctx context.Context) (int64, error)
}

type Option func(*loanServiceImpl)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *loanServiceImpl) {
		s.now = now
	}
}

type loanServiceImpl struct {
	repo         Repository
	customerRepo customer.CustomerRepository
	pub          event.Publisher
	logger       *slog.Logger
	now          func() time.Time
}

var _ LoanService = (*loanServiceImpl)(nil)

func NewLoanService(r Repository, cr customer.CustomerRepository, pub event.Publisher, logger *slog.Logger, opts ...Option) LoanService {
	if r == nil || cr == nil {
		panic("loan service repositories cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	s := &loanServiceImpl{
		repo:         r,
		customerRepo: cr,
		pub:          pub,
		logger:       logger.With(slog.String("component", "loanService")),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *loanServiceImpl) today() time.Time {
	return credit.DateOf(s.now())
}

func (s *loanServiceImpl) CheckEligibility(ctx context.Context, req Request) (*EligibilityResult, error) {
	logCtx := s.logger.With(slog.Int64("customerID", req.CustomerID))
	logCtx.InfoContext(ctx, "Checking loan eligibility")

	if err := req.Validate(); err != nil {
		logCtx.WarnContext(ctx, "Eligibility request validation failed", slog.Any("error", err))
		return nil, err
	}

	cust, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, s.customerLookupError(ctx, logCtx, req.CustomerID, err)
	}

	loans, err := s.repo.FindByCustomerID(ctx, req.CustomerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to load customer loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", req.CustomerID, err)
	}

	decision := credit.Evaluate(cust.Applicant(Records(loans)), req.toCredit(), s.today())
	monitoring.RecordEligibilityDecision(decision.Approved)
	logCtx.InfoContext(ctx, "Eligibility evaluated",
		slog.Bool("approved", decision.Approved),
		slog.Int("score", decision.Score),
		slog.String("reason", decision.Reason),
	)

	return &EligibilityResult{
		CustomerID:            req.CustomerID,
		Approved:              decision.Approved,
		Score:                 decision.Score,
		InterestRate:          req.InterestRate,
		CorrectedInterestRate: decision.CorrectedRate,
		Tenure:                req.Tenure,
		MonthlyInstallment:    decision.Installment,
	}, nil
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, req Request) (result *CreateLoanResult, err error) {
	logCtx := s.logger.With(slog.Int64("customerID", req.CustomerID))
	logCtx.InfoContext(ctx, "Creating new loan")

	if err := req.Validate(); err != nil {
		logCtx.WarnContext(ctx, "Loan request validation failed", slog.Any("error", err))
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, apperrors.WrapConsistencyError(err, "could not begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			logCtx.ErrorContext(ctx, "Panic occurred during loan creation", slog.Any("panic", p))
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			logCtx.ErrorContext(ctx, "Rolling back loan creation", slog.Any("error", err))
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	cust, err := s.customerRepo.FindByIDForUpdate(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, s.customerLookupError(ctx, logCtx, req.CustomerID, err)
	}

	loans, err := s.repo.FindByCustomerIDInTx(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, apperrors.WrapConsistencyError(err, fmt.Sprintf("could not load loans for customer %d", req.CustomerID))
	}

	today := s.today()
	decision := credit.Evaluate(cust.Applicant(Records(loans)), req.toCredit(), today)
	monitoring.RecordEligibilityDecision(decision.Approved)

	if !decision.Approved {
		logCtx.InfoContext(ctx, "Loan rejected", slog.Int("score", decision.Score), slog.String("reason", decision.Reason))
		_ = s.repo.RollbackTx(ctx, tx)
		return &CreateLoanResult{
			CustomerID:         req.CustomerID,
			Approved:           false,
			Message:            MessageRejected,
			MonthlyInstallment: decision.Installment,
		}, nil
	}

	newLoan := NewLoan(req.CustomerID, req.Amount, decision.CorrectedRate.Decimal, req.Tenure, decision.Installment, today)
	if err = s.repo.CreateInTx(ctx, tx, newLoan); err != nil {
		return nil, apperrors.WrapConsistencyError(err, "could not insert loan")
	}

	if err = s.customerRepo.IncrementDebtInTx(ctx, tx, req.CustomerID, req.Amount); err != nil {
		return nil, apperrors.WrapConsistencyError(err, "could not update customer debt")
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, apperrors.WrapConsistencyError(err, "could not commit loan creation")
	}
	monitoring.RecordLoanCreated()
	logCtx.InfoContext(ctx, "Loan created successfully", slog.Int64("loanID", newLoan.ID))

	approved := event.LoanApprovedEvent{
		LoanID:             newLoan.ID,
		CustomerID:         newLoan.CustomerID,
		LoanAmount:         newLoan.Amount,
		InterestRate:       newLoan.InterestRate,
		Tenure:             newLoan.Tenure,
		MonthlyInstallment: newLoan.MonthlyInstallment,
		Timestamp:          time.Now(),
	}
	if pubErr := s.pub.PublishLoanApproved(ctx, approved); pubErr != nil {
		logCtx.ErrorContext(ctx, "Loan created, but FAILED to publish approval event", slog.Any("error", pubErr))
	}

	loanID := newLoan.ID
	return &CreateLoanResult{
		LoanID:             &loanID,
		CustomerID:         req.CustomerID,
		Approved:           true,
		Message:            MessageApproved,
		MonthlyInstallment: newLoan.MonthlyInstallment,
	}, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error) {
	logCtx := s.logger.With(slog.Int64("loanID", loanID))
	logCtx.InfoContext(ctx, "Getting loan details")

	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found")
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		logCtx.ErrorContext(ctx, "Failed to get loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}

	cust, err := s.customerRepo.FindByID(ctx, l.CustomerID)
	if err != nil {
		return nil, s.customerLookupError(ctx, logCtx, l.CustomerID, err)
	}

	return &LoanDetail{Loan: *l, Customer: *cust}, nil
}

func (s *loanServiceImpl) ListActiveLoans(ctx context.Context, customerID int64) ([]Loan, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Listing active loans")

	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, s.customerLookupError(ctx, logCtx, customerID, err)
	}

	loans, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to list loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans for customer %d: %w", customerID, err)
	}

	active := ActiveOn(loans, s.today())
	logCtx.InfoContext(ctx, "Active loans retrieved", slog.Int("total", len(loans)), slog.Int("active", len(active)))
	return active, nil
}

func (s *loanServiceImpl) RecomputeAllDebts(ctx context.Context) (updated int64, err error) {
	s.logger.InfoContext(ctx, "Recomputing current debt for all customers")

	tx, err := s.customerRepo.BeginTx(ctx)
	if err != nil {
		return 0, apperrors.WrapConsistencyError(err, "could not begin transaction")
	}
	defer func() {
		if err != nil {
			_ = s.customerRepo.RollbackTx(ctx, tx)
		}
	}()

	updated, err = s.customerRepo.RecomputeDebtsInTx(ctx, tx)
	if err != nil {
		return 0, apperrors.WrapConsistencyError(err, "could not recompute debts")
	}

	if err = s.customerRepo.CommitTx(ctx, tx); err != nil {
		return 0, apperrors.WrapConsistencyError(err, "could not commit debt recompute")
	}

	s.logger.InfoContext(ctx, "Debt recompute finished", slog.Int64("customers", updated))
	return updated, nil
}

func (s *loanServiceImpl) customerLookupError(ctx context.Context, logCtx *slog.Logger, customerID int64, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		logCtx.WarnContext(ctx, "Customer not found", slog.Int64("lookupCustomerID", customerID))
		return fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
	}
	logCtx.ErrorContext(ctx, "Failed to get customer", slog.Any("error", err))
	return fmt.Errorf("failed to get customer %d: %w", customerID, err)
}
