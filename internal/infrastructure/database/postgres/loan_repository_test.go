package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loanCols = []string{
	"id", "customer_id", "loan_amount", "tenure", "interest_rate", "monthly_repayment",
	"emis_paid_on_time", "start_date", "end_date", "created_at", "updated_at",
}

func setupLoanRepo(t *testing.T) (pgxmock.PgxPoolIface, *LoanRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewLoanRepository(mock, logger)
}

func sampleLoan() *loan.Loan {
	start := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	return loan.NewLoan(7, decimal.NewFromInt(100000), decimal.NewFromInt(12), 12, decimal.RequireFromString("8884.88"), start)
}

func loanRow(rows *pgxmock.Rows, id, customerID int64, paid int) *pgxmock.Rows {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, customerID, decimal.NewFromInt(100000), 12, decimal.NewFromInt(12), decimal.RequireFromString("8884.88"),
		paid, start, start.AddDate(0, 0, 360), now, now,
	)
}

func TestLoanRepository_CreateInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts loan", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		tx := beginMockTx(t, mock)
		l := sampleLoan()
		now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO loans (customer_id, loan_amount")).
			WithArgs(int64(7), pgxmock.AnyArg(), 12, pgxmock.AnyArg(), pgxmock.AnyArg(), 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

		err := repo.CreateInTx(ctx, tx, l)

		require.NoError(t, err)
		assert.Equal(t, int64(11), l.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid loan is rejected before hitting the database", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		tx := beginMockTx(t, mock)
		l := sampleLoan()
		l.Tenure = 0

		err := repo.CreateInTx(ctx, tx, l)

		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign key violation", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		tx := beginMockTx(t, mock)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO loans")).
			WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "loans_customer_id_fkey"})

		err := repo.CreateInTx(ctx, tx, sampleLoan())

		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})

	t.Run("nil transaction", func(t *testing.T) {
		_, repo := setupLoanRepo(t)
		assert.ErrorIs(t, repo.CreateInTx(ctx, nil, sampleLoan()), apperrors.ErrInvalidArgument)
	})
}

func TestLoanRepository_UpsertInTx(t *testing.T) {
	ctx := context.Background()
	mock, repo := setupLoanRepo(t)
	tx := beginMockTx(t, mock)
	l := sampleLoan()
	l.ID = 9001
	l.EMIsPaidOnTime = 5

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WithArgs(int64(9001), int64(7), pgxmock.AnyArg(), 12, pgxmock.AnyArg(), pgxmock.AnyArg(), 5, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.UpsertInTx(ctx, tx, l))
	assert.NoError(t, mock.ExpectationsWereMet())

	noID := sampleLoan()
	assert.ErrorIs(t, repo.UpsertInTx(ctx, tx, noID), apperrors.ErrInvalidArgument)
}

func TestLoanRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM loans WHERE id = $1")).
			WithArgs(int64(11)).
			WillReturnRows(loanRow(pgxmock.NewRows(loanCols), 11, 7, 3))

		l, err := repo.FindByID(ctx, 11)

		require.NoError(t, err)
		assert.Equal(t, int64(11), l.ID)
		assert.Equal(t, 3, l.EMIsPaidOnTime)
		assert.Equal(t, 9, l.RepaymentsLeft())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM loans WHERE id = $1")).
			WithArgs(int64(12)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByID(ctx, 12)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestLoanRepository_FindByCustomerID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns loans ordered by id", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		rows := pgxmock.NewRows(loanCols)
		loanRow(rows, 1, 7, 0)
		loanRow(rows, 4, 7, 12)
		mock.ExpectQuery(regexp.QuoteMeta("FROM loans WHERE customer_id = $1 ORDER BY id")).
			WithArgs(int64(7)).
			WillReturnRows(rows)

		loans, err := repo.FindByCustomerID(ctx, 7)

		require.NoError(t, err)
		require.Len(t, loans, 2)
		assert.Equal(t, int64(1), loans[0].ID)
		assert.Equal(t, int64(4), loans[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no loans gives an empty slice", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM loans WHERE customer_id = $1")).
			WithArgs(int64(8)).
			WillReturnRows(pgxmock.NewRows(loanCols))

		loans, err := repo.FindByCustomerID(ctx, 8)

		require.NoError(t, err)
		assert.NotNil(t, loans)
		assert.Empty(t, loans)
	})

	t.Run("in transaction", func(t *testing.T) {
		mock, repo := setupLoanRepo(t)
		tx := beginMockTx(t, mock)
		mock.ExpectQuery(regexp.QuoteMeta("FROM loans WHERE customer_id = $1")).
			WithArgs(int64(7)).
			WillReturnRows(loanRow(pgxmock.NewRows(loanCols), 2, 7, 1))

		loans, err := repo.FindByCustomerIDInTx(ctx, tx, 7)

		require.NoError(t, err)
		assert.Len(t, loans, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoanRepository_SyncIDSequenceInTx(t *testing.T) {
	ctx := context.Background()
	mock, repo := setupLoanRepo(t)
	tx := beginMockTx(t, mock)

	mock.ExpectExec(regexp.QuoteMeta("pg_get_serial_sequence('loans', 'id')")).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	assert.NoError(t, repo.SyncIDSequenceInTx(ctx, tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
