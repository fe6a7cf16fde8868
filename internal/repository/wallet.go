package repository

import (
	"context"

	"bikeshare/internal/domain"
)

// WalletRepository defines the persistence operations for wallets and the
// append-only transaction ledger.
type WalletRepository interface {
	// EnsureWallet creates a zero-balance wallet for the rider if one
	// does not exist yet.
	EnsureWallet(ctx context.Context, riderID string) error

	// GetByRiderID retrieves a rider's wallet.
	GetByRiderID(ctx context.Context, riderID string) (*domain.Wallet, error)

	// Debit atomically decrements the balance and returns the new value.
	// Returns ErrInsufficientFunds if the balance is below the amount;
	// the balance is never partially applied.
	Debit(ctx context.Context, riderID string, amount float64) (float64, error)

	// Credit atomically increments the balance and returns the new value.
	Credit(ctx context.Context, riderID string, amount float64) (float64, error)

	// CreateTransaction appends a ledger entry. Every balance mutation
	// must be paired with exactly one COMPLETED transaction row in the
	// same unit of work.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error

	// GetTransactions retrieves a rider's ledger entries, newest first.
	GetTransactions(ctx context.Context, riderID string) ([]*domain.Transaction, error)

	// SumCompleted returns the signed sum of the rider's COMPLETED
	// transactions, used for balance reconciliation.
	SumCompleted(ctx context.Context, riderID string) (float64, error)
}
