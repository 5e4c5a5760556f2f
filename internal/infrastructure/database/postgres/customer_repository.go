package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const customerColumns = `id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at`

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.db, r.logger)
}

func (r *CustomerRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return commitTx(ctx, tx, r.logger)
}

func (r *CustomerRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return rollbackTx(ctx, tx, r.logger)
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(&cust.CustomerID, &cust.CreatedAt, &cust.UpdatedAt)
	recordQuery("customer_create", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Customer inserted", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.findOne(ctx, r.db, "customer_find_by_id", query, customerID)
}

func (r *CustomerRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, tx, "customer_find_for_update", query, customerID)
}

func (r *CustomerRepository) findOne(ctx context.Context, q querier, name, query string, customerID int64) (*customer.Customer, error) {
	start := time.Now()
	cust, err := scanCustomer(q.QueryRow(ctx, query, customerID))
	recordQuery(name, start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, fmt.Errorf("%w: customer with id %d", apperrors.ErrNotFound, customerID)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}
	return cust, nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.CustomerID,
		&c.FirstName,
		&c.LastName,
		&c.Age,
		&c.PhoneNumber,
		&c.MonthlySalary,
		&c.ApprovedLimit,
		&c.CurrentDebt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) IncrementDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount decimal.Decimal) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `UPDATE customers SET current_debt = current_debt + $1, updated_at = NOW() WHERE id = $2`

	start := time.Now()
	cmdTag, err := tx.Exec(ctx, query, amount, customerID)
	recordQuery("customer_increment_debt", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to increment customer debt", slog.Int64("customerID", customerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer with id %d", apperrors.ErrNotFound, customerID)
	}
	return nil
}

func (r *CustomerRepository) UpsertInTx(ctx context.Context, tx pgx.Tx, cust *customer.Customer) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}
	if cust == nil || cust.CustomerID <= 0 {
		return fmt.Errorf("%w: upsert needs a customer with a positive id", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO customers (id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET
            first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            age = EXCLUDED.age,
            phone_number = EXCLUDED.phone_number,
            monthly_salary = EXCLUDED.monthly_salary,
            approved_limit = EXCLUDED.approved_limit,
            current_debt = 0,
            updated_at = NOW()`

	start := time.Now()
	_, err := tx.Exec(ctx, query,
		cust.CustomerID,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
	)
	recordQuery("customer_upsert", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert customer", slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	cust.CurrentDebt = decimal.Zero
	return nil
}

func (r *CustomerRepository) ListIDsInTx(ctx context.Context, tx pgx.Tx) (map[int64]struct{}, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}

	start := time.Now()
	rows, err := tx.Query(ctx, `SELECT id FROM customers`)
	if err != nil {
		recordQuery("customer_list_ids", start, err)
		r.logger.ErrorContext(ctx, "Failed to list customer ids", slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			recordQuery("customer_list_ids", start, err)
			return nil, translateDBError(err, r.logger)
		}
		ids[id] = struct{}{}
	}
	err = rows.Err()
	recordQuery("customer_list_ids", start, err)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return ids, nil
}

// RecomputeDebtsInTx sets every customer's debt to the sum of their loans' remaining repayments.
func (r *CustomerRepository) RecomputeDebtsInTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}

	// Loan writers lock the customer row or its FK key before touching loans, so
	// waiting on customers first keeps the lock order and lets in-flight bookings
	// commit before the sum below takes its snapshot.
	locks := []string{
		"LOCK TABLE customers IN EXCLUSIVE MODE",
		"LOCK TABLE loans IN SHARE MODE",
	}
	for _, lock := range locks {
		start := time.Now()
		_, err := tx.Exec(ctx, lock)
		recordQuery("customer_recompute_lock", start, err)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to lock tables for debt recompute", slog.String("statement", lock), slog.Any("error", err))
			return 0, translateDBError(err, r.logger)
		}
	}

	query := `
        UPDATE customers c SET
            current_debt = COALESCE((
                SELECT SUM(l.monthly_repayment * GREATEST(0, l.tenure - l.emis_paid_on_time))
                FROM loans l WHERE l.customer_id = c.id), 0),
            updated_at = NOW()`

	start := time.Now()
	cmdTag, err := tx.Exec(ctx, query)
	recordQuery("customer_recompute_debts", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to recompute customer debts", slog.Any("error", err))
		return 0, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Customer debts recomputed", slog.Int64("customers", cmdTag.RowsAffected()))
	return cmdTag.RowsAffected(), nil
}

func (r *CustomerRepository) SyncIDSequenceInTx(ctx context.Context, tx pgx.Tx) error {
	return syncSequence(ctx, tx, "customers", r.logger)
}

// syncSequence moves the table's id sequence past its highest explicit id.
func syncSequence(ctx context.Context, tx pgx.Tx, table string, logger *slog.Logger) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s`,
		table,
	)

	start := time.Now()
	_, err := tx.Exec(ctx, query)
	recordQuery(table+"_sync_sequence", start, err)

	if err != nil {
		logger.ErrorContext(ctx, "Failed to sync id sequence", slog.String("table", table), slog.Any("error", err))
		return translateDBError(err, logger)
	}
	return nil
}
