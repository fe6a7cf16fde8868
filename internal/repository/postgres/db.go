package postgres

import (
	"context"
	"database/sql"

	"bikeshare/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// UnitOfWork runs callbacks inside a single database transaction, handing
// them transaction-scoped repositories.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// Do begins a transaction, invokes fn with transaction-scoped repositories,
// and commits. Any error from fn rolls the whole transaction back.
func (u *UnitOfWork) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	repos := repository.Repositories{
		Rides:   NewRideRepositoryWithTx(tx),
		Bikes:   NewBikeRepositoryWithTx(tx),
		Wallets: NewWalletRepositoryWithTx(tx),
		Pricing: NewPricingRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
