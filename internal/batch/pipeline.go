// Package batch ingests the customer and loan workbooks and keeps derived debts in sync.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/infrastructure/spreadsheet"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const (
	stageCustomers = "customers"
	stageLoans     = "loans"
	stageDebts     = "debts"
)

// LoanReport summarizes one loan ingestion stage.
type LoanReport struct {
	Inserted  int
	Errors    int
	RowErrors []*apperrors.RowError
}

func (r *LoanReport) Summary() string {
	return fmt.Sprintf("Processed %d loans, %d errors", r.Inserted, r.Errors)
}

type ImportSummary struct {
	Customers string `json:"customers"`
	Loans     string `json:"loans"`
	Debts     string `json:"debts"`
}

type Pipeline struct {
	customerRepo customer.CustomerRepository
	loanRepo     loan.Repository
	loanService  loan.LoanService
	readRows     func(path string) ([]string, []spreadsheet.Row, error)
	logger       *slog.Logger
}

func NewPipeline(customerRepo customer.CustomerRepository, loanRepo loan.Repository, loanSvc loan.LoanService, logger *slog.Logger) *Pipeline {
	if customerRepo == nil || loanRepo == nil || loanSvc == nil || logger == nil {
		panic("Pipeline dependencies cannot be nil")
	}
	return &Pipeline{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		loanService:  loanSvc,
		readRows:     spreadsheet.ReadRows,
		logger:       logger.With("component", "IngestionPipeline"),
	}
}

func (p *Pipeline) IngestCustomers(ctx context.Context, path string) (string, error) {
	headers, rows, err := p.readRows(path)
	if err != nil {
		p.logger.ErrorContext(ctx, "Customer ingestion failed", slog.String("file", path), slog.Any("error", err))
		return "", apperrors.NewBatchError(err)
	}
	p.logger.InfoContext(ctx, "Customer columns", slog.Any("columns", headers))
	return p.IngestCustomerRows(ctx, rows)
}

// IngestCustomerRows upserts every row or, if any row is malformed, none of them.
func (p *Pipeline) IngestCustomerRows(ctx context.Context, rows []spreadsheet.Row) (summary string, err error) {
	logCtx := p.logger.With(slog.String("stage", stageCustomers))
	logCtx.InfoContext(ctx, "Processing customer records", slog.Int("rows", len(rows)))

	customers := make([]*customer.Customer, 0, len(rows))
	for _, row := range rows {
		cust, rowErr := parseCustomerRow(row)
		if rowErr != nil {
			logCtx.ErrorContext(ctx, "Rejecting customer batch", slog.Any("error", rowErr))
			monitoring.RecordIngestionRows(stageCustomers, "rejected", len(rows))
			return "", apperrors.NewBatchError(rowErr)
		}
		customers = append(customers, cust)
	}

	tx, err := p.customerRepo.BeginTx(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rbErr := p.customerRepo.RollbackTx(ctx, tx); rbErr != nil {
				logCtx.ErrorContext(ctx, "Failed to rollback customer ingestion", slog.Any("error", rbErr))
			}
		}
	}()

	for _, cust := range customers {
		if err = p.customerRepo.UpsertInTx(ctx, tx, cust); err != nil {
			logCtx.ErrorContext(ctx, "Customer upsert failed", slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
			return "", err
		}
	}
	if err = p.customerRepo.SyncIDSequenceInTx(ctx, tx); err != nil {
		return "", err
	}
	if err = p.customerRepo.CommitTx(ctx, tx); err != nil {
		return "", err
	}

	monitoring.RecordIngestionRows(stageCustomers, "ok", len(customers))
	logCtx.InfoContext(ctx, "Customer data ingested successfully", slog.Int("customers", len(customers)))
	return fmt.Sprintf("Processed %d customer records", len(customers)), nil
}

func (p *Pipeline) IngestLoans(ctx context.Context, path string) (*LoanReport, error) {
	headers, rows, err := p.readRows(path)
	if err != nil {
		p.logger.ErrorContext(ctx, "Loan ingestion failed", slog.String("file", path), slog.Any("error", err))
		return nil, apperrors.NewBatchError(err)
	}
	p.logger.InfoContext(ctx, "Loan columns", slog.Any("columns", headers))
	return p.IngestLoanRows(ctx, rows)
}

// IngestLoanRows validates rows against a customer snapshot taken in the same transaction.
// Bad rows, including values the database refuses, are skipped and reported.
// Any other database failure aborts the whole stage.
func (p *Pipeline) IngestLoanRows(ctx context.Context, rows []spreadsheet.Row) (report *LoanReport, err error) {
	logCtx := p.logger.With(slog.String("stage", stageLoans))
	logCtx.InfoContext(ctx, "Processing loan records", slog.Int("rows", len(rows)))

	tx, err := p.loanRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := p.loanRepo.RollbackTx(ctx, tx); rbErr != nil {
				logCtx.ErrorContext(ctx, "Failed to rollback loan ingestion", slog.Any("error", rbErr))
			}
		}
	}()

	known, err := p.customerRepo.ListIDsInTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	logCtx.InfoContext(ctx, "Found valid customers in database", slog.Int("customers", len(known)))

	report = &LoanReport{}
	for _, row := range rows {
		l, rowErr := parseLoanRow(row, known)
		if rowErr != nil {
			logCtx.ErrorContext(ctx, "Skipping loan row", slog.Any("error", rowErr))
			report.Errors++
			report.RowErrors = append(report.RowErrors, rowErr)
			continue
		}
		if err = p.upsertLoan(ctx, tx, l); err != nil {
			if !isRejectedValue(err) {
				logCtx.ErrorContext(ctx, "Loan upsert failed", slog.Int64("loanID", l.ID), slog.Any("error", err))
				return nil, err
			}
			rowErr = &apperrors.RowError{Row: row.Line, Message: err.Error()}
			err = nil
			logCtx.ErrorContext(ctx, "Skipping loan row rejected by database", slog.Int64("loanID", l.ID), slog.Any("error", rowErr))
			report.Errors++
			report.RowErrors = append(report.RowErrors, rowErr)
			continue
		}
		report.Inserted++
	}

	if err = p.loanRepo.SyncIDSequenceInTx(ctx, tx); err != nil {
		return nil, err
	}
	if err = p.loanRepo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	monitoring.RecordIngestionRows(stageLoans, "ok", report.Inserted)
	monitoring.RecordIngestionRows(stageLoans, "skipped", report.Errors)
	logCtx.InfoContext(ctx, "Loan ingestion completed", slog.Int("inserted", report.Inserted), slog.Int("errors", report.Errors))
	return report, nil
}

// upsertLoan writes one loan under a savepoint so a refused row leaves the stage transaction usable.
func (p *Pipeline) upsertLoan(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: could not open savepoint: %w", apperrors.ErrDatabase, err)
	}
	if err = p.loanRepo.UpsertInTx(ctx, sp, l); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w: could not roll back to savepoint: %w", apperrors.ErrDatabase, rbErr)
		}
		return err
	}
	if err = sp.Commit(ctx); err != nil {
		return fmt.Errorf("%w: could not release savepoint: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func isRejectedValue(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidArgument) || errors.Is(err, apperrors.ErrValidation)
}

func (p *Pipeline) RecomputeDebts(ctx context.Context) (string, error) {
	updated, err := p.loanService.RecomputeAllDebts(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Debt update failed", slog.Any("error", err))
		return "", err
	}
	monitoring.RecordIngestionRows(stageDebts, "ok", int(updated))
	return fmt.Sprintf("Updated debts for %d customers", updated), nil
}

// ImportAll runs customers, loans and debts in that order and stops at the first failing stage.
func (p *Pipeline) ImportAll(ctx context.Context, customerPath, loanPath string) (*ImportSummary, error) {
	start := time.Now()
	p.logger.InfoContext(ctx, "Starting complete data import")
	summary := &ImportSummary{}

	p.logger.InfoContext(ctx, "Importing customers", slog.String("file", customerPath))
	customers, err := p.IngestCustomers(ctx, customerPath)
	if err != nil {
		return summary, fmt.Errorf("customer import: %w", err)
	}
	summary.Customers = customers

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	p.logger.InfoContext(ctx, "Importing loans", slog.String("file", loanPath))
	report, err := p.IngestLoans(ctx, loanPath)
	if err != nil {
		return summary, fmt.Errorf("loan import: %w", err)
	}
	summary.Loans = report.Summary()

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	p.logger.InfoContext(ctx, "Updating current debts")
	debts, err := p.RecomputeDebts(ctx)
	if err != nil {
		return summary, fmt.Errorf("debt update: %w", err)
	}
	summary.Debts = debts

	p.logger.InfoContext(ctx, "Data import completed",
		slog.String("customers", summary.Customers),
		slog.String("loans", summary.Loans),
		slog.String("debts", summary.Debts),
		slog.Duration("duration", time.Since(start)),
	)
	return summary, nil
}
