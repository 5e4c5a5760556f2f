package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error

	// UpsertInTx inserts or fully overwrites the loan keyed by its ID.
	UpsertInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	// FindByCustomerID returns every loan of the customer ordered by loan id.
	FindByCustomerID(ctx context.Context, customerID int64) ([]Loan, error)

	FindByCustomerIDInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error)

	SyncIDSequenceInTx(ctx context.Context, tx pgx.Tx) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
