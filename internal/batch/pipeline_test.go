package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/spreadsheet"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type pipelineMocks struct {
	customers *MockCustomerRepository
	loans     *MockLoanRepository
	service   *MockLoanService
}

func newTestPipeline() (*Pipeline, pipelineMocks) {
	m := pipelineMocks{
		customers: new(MockCustomerRepository),
		loans:     new(MockLoanRepository),
		service:   new(MockLoanService),
	}
	return NewPipeline(m.customers, m.loans, m.service, logger), m
}

func TestNewPipelinePanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewPipeline(nil, new(MockLoanRepository), new(MockLoanService), logger) })
}

func TestIngestCustomerRows(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts every row in one transaction", func(t *testing.T) {
		p, m := newTestPipeline()
		m.customers.On("BeginTx", ctx).Return(tx, nil)
		m.customers.On("UpsertInTx", ctx, tx, mock.MatchedBy(func(c *customer.Customer) bool { return c.CustomerID == 1 })).Return(nil).Once()
		m.customers.On("UpsertInTx", ctx, tx, mock.MatchedBy(func(c *customer.Customer) bool { return c.CustomerID == 2 })).Return(nil).Once()
		m.customers.On("SyncIDSequenceInTx", ctx, tx).Return(nil)
		m.customers.On("CommitTx", ctx, tx).Return(nil)

		summary, err := p.IngestCustomerRows(ctx, []spreadsheet.Row{
			customerSheetRow(2, nil),
			customerSheetRow(3, map[string]string{"Customer ID": "2"}),
		})

		require.NoError(t, err)
		assert.Equal(t, "Processed 2 customer records", summary)
		m.customers.AssertExpectations(t)
		m.customers.AssertNotCalled(t, "RollbackTx", mock.Anything, mock.Anything)
	})

	t.Run("one malformed row rejects the batch before any write", func(t *testing.T) {
		p, m := newTestPipeline()

		_, err := p.IngestCustomerRows(ctx, []spreadsheet.Row{
			customerSheetRow(2, nil),
			customerSheetRow(3, map[string]string{"Age": "n/a"}),
		})

		assert.ErrorIs(t, err, apperrors.ErrIngestionBatch)
		var rowErr *apperrors.RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 3, rowErr.Row)
		m.customers.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("upsert failure rolls back", func(t *testing.T) {
		p, m := newTestPipeline()
		dbErr := errors.New("disk full")
		m.customers.On("BeginTx", ctx).Return(tx, nil)
		m.customers.On("UpsertInTx", ctx, tx, mock.Anything).Return(dbErr)
		m.customers.On("RollbackTx", ctx, tx).Return(nil)

		_, err := p.IngestCustomerRows(ctx, []spreadsheet.Row{customerSheetRow(2, nil)})

		assert.ErrorIs(t, err, dbErr)
		m.customers.AssertExpectations(t)
		m.customers.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
	})
}

func TestIngestLoanRows(t *testing.T) {
	ctx := context.Background()

	t.Run("skips bad rows and counts them", func(t *testing.T) {
		p, m := newTestPipeline()
		m.loans.On("BeginTx", ctx).Return(tx, nil)
		m.customers.On("ListIDsInTx", ctx, tx).Return(map[int64]struct{}{1: {}}, nil)
		m.loans.On("UpsertInTx", ctx, tx, mock.MatchedBy(func(l *loan.Loan) bool { return l.ID == 9001 })).Return(nil).Once()
		m.loans.On("SyncIDSequenceInTx", ctx, tx).Return(nil)
		m.loans.On("CommitTx", ctx, tx).Return(nil)

		report, err := p.IngestLoanRows(ctx, []spreadsheet.Row{
			loanSheetRow(2, nil),
			loanSheetRow(3, map[string]string{"Customer ID": "99", "Loan ID": "9002"}),
			loanSheetRow(4, map[string]string{"Loan ID": "9003", "EMIs paid on Time": "20"}),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 2, report.Errors)
		require.Len(t, report.RowErrors, 2)
		assert.Equal(t, 3, report.RowErrors[0].Row)
		assert.Equal(t, "Processed 1 loans, 2 errors", report.Summary())
		m.loans.AssertExpectations(t)
		m.customers.AssertExpectations(t)
	})

	t.Run("database failure aborts the stage", func(t *testing.T) {
		p, m := newTestPipeline()
		stageTx := &TxMock{}
		dbErr := errors.New("connection lost")
		m.loans.On("BeginTx", ctx).Return(stageTx, nil)
		m.customers.On("ListIDsInTx", ctx, stageTx).Return(map[int64]struct{}{1: {}}, nil)
		m.loans.On("UpsertInTx", ctx, stageTx, mock.Anything).Return(dbErr)
		m.loans.On("RollbackTx", ctx, stageTx).Return(nil)

		report, err := p.IngestLoanRows(ctx, []spreadsheet.Row{loanSheetRow(2, nil)})

		assert.Nil(t, report)
		assert.ErrorIs(t, err, dbErr)
		assert.Equal(t, 1, stageTx.rolledBack)
		m.loans.AssertExpectations(t)
		m.loans.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
	})

	t.Run("value refused by the database skips only that row", func(t *testing.T) {
		p, m := newTestPipeline()
		stageTx := &TxMock{}
		overflow := fmt.Errorf("%w: %w: numeric field overflow", apperrors.ErrInvalidArgument, apperrors.ErrDatabase)
		m.loans.On("BeginTx", ctx).Return(stageTx, nil)
		m.customers.On("ListIDsInTx", ctx, stageTx).Return(map[int64]struct{}{1: {}}, nil)
		m.loans.On("UpsertInTx", ctx, stageTx, mock.MatchedBy(func(l *loan.Loan) bool { return l.ID == 9001 })).Return(overflow).Once()
		m.loans.On("UpsertInTx", ctx, stageTx, mock.MatchedBy(func(l *loan.Loan) bool { return l.ID == 9002 })).Return(nil).Once()
		m.loans.On("SyncIDSequenceInTx", ctx, stageTx).Return(nil)
		m.loans.On("CommitTx", ctx, stageTx).Return(nil)

		report, err := p.IngestLoanRows(ctx, []spreadsheet.Row{
			loanSheetRow(2, map[string]string{"Loan Amount": "1e15"}),
			loanSheetRow(3, map[string]string{"Loan ID": "9002"}),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 1, report.Errors)
		require.Len(t, report.RowErrors, 1)
		assert.Equal(t, 2, report.RowErrors[0].Row)
		assert.Contains(t, report.RowErrors[0].Message, "numeric field overflow")
		assert.Equal(t, 2, stageTx.savepoints)
		assert.Equal(t, 1, stageTx.rolledBack)
		assert.Equal(t, 1, stageTx.released)
		m.loans.AssertExpectations(t)
		m.loans.AssertNotCalled(t, "RollbackTx", mock.Anything, mock.Anything)
	})

	t.Run("snapshot failure rolls back", func(t *testing.T) {
		p, m := newTestPipeline()
		m.loans.On("BeginTx", ctx).Return(tx, nil)
		m.customers.On("ListIDsInTx", ctx, tx).Return(nil, apperrors.ErrDatabase)
		m.loans.On("RollbackTx", ctx, tx).Return(nil)

		_, err := p.IngestLoanRows(ctx, nil)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		m.loans.AssertExpectations(t)
	})
}

func TestRecomputeDebts(t *testing.T) {
	ctx := context.Background()
	p, m := newTestPipeline()
	m.service.On("RecomputeAllDebts", ctx).Return(int64(3), nil)

	summary, err := p.RecomputeDebts(ctx)

	require.NoError(t, err)
	assert.Equal(t, "Updated debts for 3 customers", summary)
}

func TestImportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the stages in order", func(t *testing.T) {
		p, m := newTestPipeline()
		var order []string
		p.readRows = func(path string) ([]string, []spreadsheet.Row, error) {
			order = append(order, path)
			if path == "customers.xlsx" {
				return []string{"customer_id"}, []spreadsheet.Row{customerSheetRow(2, nil)}, nil
			}
			return []string{"loan_id"}, []spreadsheet.Row{loanSheetRow(2, nil)}, nil
		}
		m.customers.On("BeginTx", ctx).Return(tx, nil)
		m.customers.On("UpsertInTx", ctx, tx, mock.Anything).Return(nil)
		m.customers.On("SyncIDSequenceInTx", ctx, tx).Return(nil)
		m.customers.On("CommitTx", ctx, tx).Return(nil)
		m.loans.On("BeginTx", ctx).Return(tx, nil)
		m.customers.On("ListIDsInTx", ctx, tx).Return(map[int64]struct{}{1: {}}, nil)
		m.loans.On("UpsertInTx", ctx, tx, mock.Anything).Return(nil)
		m.loans.On("SyncIDSequenceInTx", ctx, tx).Return(nil)
		m.loans.On("CommitTx", ctx, tx).Return(nil)
		m.service.On("RecomputeAllDebts", ctx).Return(int64(1), nil)

		summary, err := p.ImportAll(ctx, "customers.xlsx", "loans.xlsx")

		require.NoError(t, err)
		assert.Equal(t, []string{"customers.xlsx", "loans.xlsx"}, order)
		assert.Equal(t, &ImportSummary{
			Customers: "Processed 1 customer records",
			Loans:     "Processed 1 loans, 0 errors",
			Debts:     "Updated debts for 1 customers",
		}, summary)
	})

	t.Run("stops at the first failing stage", func(t *testing.T) {
		p, m := newTestPipeline()
		p.readRows = func(path string) ([]string, []spreadsheet.Row, error) {
			return nil, nil, errors.New("no such file")
		}

		summary, err := p.ImportAll(ctx, "customers.xlsx", "loans.xlsx")

		assert.ErrorIs(t, err, apperrors.ErrIngestionBatch)
		assert.Empty(t, summary.Customers)
		m.loans.AssertNotCalled(t, "BeginTx", mock.Anything)
		m.service.AssertNotCalled(t, "RecomputeAllDebts", mock.Anything)
	})
}

func TestIngestCustomersFromWorkbook(t *testing.T) {
	ctx := context.Background()
	f := excelize.NewFile()
	rows := [][]any{
		{"Customer ID", "First Name", "Last Name", "Age", "Phone Number", "Monthly Salary", "Approved Limit"},
		{1, "Ada", "Lovelace", 36, 9629317944, 5000, 200000},
		{2, "Grace", "Hopper", 40, 9876543210, 7500, 300000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "customer_data.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	p, m := newTestPipeline()
	var upserted []*customer.Customer
	m.customers.On("BeginTx", ctx).Return(tx, nil)
	m.customers.On("UpsertInTx", ctx, tx, mock.Anything).Run(func(args mock.Arguments) {
		upserted = append(upserted, args.Get(2).(*customer.Customer))
	}).Return(nil)
	m.customers.On("SyncIDSequenceInTx", ctx, tx).Return(nil)
	m.customers.On("CommitTx", ctx, tx).Return(nil)

	summary, err := p.IngestCustomers(ctx, path)

	require.NoError(t, err)
	assert.Equal(t, "Processed 2 customer records", summary)
	require.Len(t, upserted, 2)
	assert.Equal(t, "9629317944", upserted[0].PhoneNumber)
	assert.Equal(t, "Hopper", upserted[1].LastName)
}
