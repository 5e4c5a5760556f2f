package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const customerNotFound = "Customer not found by repository"

// RegisterInput carries the client-supplied fields of a new customer.
type RegisterInput struct {
	FirstName     string
	LastName      string
	Age           int
	MonthlyIncome decimal.Decimal
	PhoneNumber   string
}

type CustomerService interface {
	RegisterCustomer(ctx context.Context, input RegisterInput) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.Publisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, publisher event.Publisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if publisher == nil {
		publisher = event.NoopPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, input RegisterInput) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	if err := validateRegistration(input); err != nil {
		s.logger.WarnContext(ctx, "Registration validation failed", slog.Any("error", err))
		return nil, err
	}

	cust := NewCustomer(input.FirstName, input.LastName, input.Age, input.MonthlyIncome, input.PhoneNumber)
	logCtx := s.logger.With(slog.String("approved_limit", cust.ApprovedLimit.String()))

	logCtx.InfoContext(ctx, "Calling repository Create")
	if err := s.repo.Create(ctx, cust); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		if errors.Is(err, apperrors.ErrDatabase) {
			return nil, apperrors.WrapDatabaseError(err, "failed to save new customer")
		}
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	logCtx = logCtx.With(slog.Int64("customerID", cust.CustomerID))
	monitoring.RecordCustomerRegistered()

	registered := event.CustomerRegisteredEvent{
		CustomerID:    cust.CustomerID,
		Name:          cust.FullName(),
		ApprovedLimit: cust.ApprovedLimit,
		Timestamp:     time.Now(),
	}
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registered); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully registered new customer")
	return cust, nil
}

func validateRegistration(input RegisterInput) error {
	switch {
	case input.FirstName == "":
		return apperrors.NewValidationError("first_name", "must not be empty")
	case len(input.FirstName) > MaxNameLength:
		return apperrors.NewValidationError("first_name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	case input.LastName == "":
		return apperrors.NewValidationError("last_name", "must not be empty")
	case len(input.LastName) > MaxNameLength:
		return apperrors.NewValidationError("last_name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	case input.Age <= 0:
		return apperrors.NewValidationError("age", "must be positive")
	case !input.MonthlyIncome.IsPositive():
		return apperrors.NewValidationError("monthly_income", "must be positive")
	case input.PhoneNumber == "":
		return apperrors.NewValidationError("phone_number", "must not be empty")
	case len(input.PhoneNumber) > MaxPhoneLength:
		return apperrors.NewValidationError("phone_number", fmt.Sprintf("must be at most %d characters", MaxPhoneLength))
	}
	return nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to get customer by ID")

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, customerNotFound)
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}

		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved customer")
	return customer, nil
}
