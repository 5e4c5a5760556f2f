package customer

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// FindByIDForUpdate locks the customer row until tx ends.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*Customer, error)

	IncrementDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount decimal.Decimal) error

	// UpsertInTx inserts or fully overwrites the customer keyed by CustomerID and resets its debt.
	UpsertInTx(ctx context.Context, tx pgx.Tx, customer *Customer) error

	ListIDsInTx(ctx context.Context, tx pgx.Tx) (map[int64]struct{}, error)

	RecomputeDebtsInTx(ctx context.Context, tx pgx.Tx) (int64, error)

	SyncIDSequenceInTx(ctx context.Context, tx pgx.Tx) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
