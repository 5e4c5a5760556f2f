package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewLoanRepository, using default stderr handler")
	}
	return &LoanRepository{
		db:     db,
		logger: logger.With("component", "LoanRepository"),
	}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.db, r.logger)
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return commitTx(ctx, tx, r.logger)
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return rollbackTx(ctx, tx, r.logger)
}

func (r *LoanRepository) CreateInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}
	if err := l.Validate(); err != nil {
		return err
	}

	query := `
        INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := tx.QueryRow(ctx, query,
		l.CustomerID,
		l.Amount,
		l.Tenure,
		l.InterestRate,
		l.MonthlyInstallment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	recordQuery("loan_create", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Int64("customerID", l.CustomerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Loan inserted", slog.Int64("loanID", l.ID), slog.Int64("customerID", l.CustomerID))
	return nil
}

func (r *LoanRepository) UpsertInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}
	if l == nil || l.ID <= 0 {
		return fmt.Errorf("%w: upsert needs a loan with a positive id", apperrors.ErrInvalidArgument)
	}
	if err := l.Validate(); err != nil {
		return err
	}

	query := `
        INSERT INTO loans (id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET
            customer_id = EXCLUDED.customer_id,
            loan_amount = EXCLUDED.loan_amount,
            tenure = EXCLUDED.tenure,
            interest_rate = EXCLUDED.interest_rate,
            monthly_repayment = EXCLUDED.monthly_repayment,
            emis_paid_on_time = EXCLUDED.emis_paid_on_time,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()`

	start := time.Now()
	_, err := tx.Exec(ctx, query,
		l.ID,
		l.CustomerID,
		l.Amount,
		l.Tenure,
		l.InterestRate,
		l.MonthlyInstallment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
	)
	recordQuery("loan_upsert", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert loan", slog.Int64("loanID", l.ID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	start := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	recordQuery("loan_find_by_id", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, fmt.Errorf("%w: loan with id %d", apperrors.ErrNotFound, loanID)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch loan", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}
	return l, nil
}

func (r *LoanRepository) FindByCustomerID(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	return r.findByCustomer(ctx, r.db, customerID)
}

func (r *LoanRepository) FindByCustomerIDInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]loan.Loan, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}
	return r.findByCustomer(ctx, tx, customerID)
}

func (r *LoanRepository) findByCustomer(ctx context.Context, q querier, customerID int64) ([]loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY id`

	start := time.Now()
	rows, err := q.Query(ctx, query, customerID)
	if err != nil {
		recordQuery("loan_find_by_customer", start, err)
		r.logger.ErrorContext(ctx, "Failed to query loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			recordQuery("loan_find_by_customer", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan loan row", slog.Int64("customerID", customerID), slog.Any("error", err))
			return nil, translateDBError(err, r.logger)
		}
		loans = append(loans, *l)
	}
	err = rows.Err()
	recordQuery("loan_find_by_customer", start, err)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return loans, nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID,
		&l.CustomerID,
		&l.Amount,
		&l.Tenure,
		&l.InterestRate,
		&l.MonthlyInstallment,
		&l.EMIsPaidOnTime,
		&l.StartDate,
		&l.EndDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) SyncIDSequenceInTx(ctx context.Context, tx pgx.Tx) error {
	return syncSequence(ctx, tx, "loans", r.logger)
}
