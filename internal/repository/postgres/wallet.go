package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of
// repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

// EnsureWallet creates a zero-balance wallet for the rider if missing.
func (r *WalletRepository) EnsureWallet(ctx context.Context, riderID string) error {
	query := `
		INSERT INTO wallets (rider_id, balance, updated_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (rider_id) DO NOTHING
	`

	_, err := r.q.ExecContext(ctx, query, riderID, time.Now())
	return err
}

// GetByRiderID retrieves a rider's wallet.
func (r *WalletRepository) GetByRiderID(ctx context.Context, riderID string) (*domain.Wallet, error) {
	query := `SELECT rider_id, balance, updated_at FROM wallets WHERE rider_id = $1`

	var wallet domain.Wallet
	err := r.q.QueryRowContext(ctx, query, riderID).Scan(
		&wallet.RiderID,
		&wallet.Balance,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &wallet, nil
}

// Debit decrements the balance if and only if it covers the amount.
// The balance guard lives in the WHERE clause, so a concurrent debit can
// never drive the balance negative.
func (r *WalletRepository) Debit(ctx context.Context, riderID string, amount float64) (float64, error) {
	query := `
		UPDATE wallets SET balance = balance - $1, updated_at = $2
		WHERE rider_id = $3 AND balance >= $1
		RETURNING balance
	`

	var newBalance float64
	err := r.q.QueryRowContext(ctx, query, amount, time.Now(), riderID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either no wallet or not enough balance; tell them apart.
			if _, getErr := r.GetByRiderID(ctx, riderID); getErr != nil {
				return 0, getErr
			}
			return 0, repository.ErrInsufficientFunds
		}
		return 0, err
	}

	return newBalance, nil
}

// Credit increments the balance and returns the new value.
func (r *WalletRepository) Credit(ctx context.Context, riderID string, amount float64) (float64, error) {
	query := `
		UPDATE wallets SET balance = balance + $1, updated_at = $2
		WHERE rider_id = $3
		RETURNING balance
	`

	var newBalance float64
	err := r.q.QueryRowContext(ctx, query, amount, time.Now(), riderID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return newBalance, nil
}

// CreateTransaction appends a ledger entry.
func (r *WalletRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (id, rider_id, type, amount, fee, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		tx.ID,
		tx.RiderID,
		tx.Type,
		tx.Amount,
		tx.Fee,
		tx.Status,
		metadata,
		tx.CreatedAt,
	)

	return err
}

// GetTransactions retrieves a rider's ledger entries, newest first.
func (r *WalletRepository) GetTransactions(ctx context.Context, riderID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, rider_id, type, amount, fee, status, metadata, created_at
		FROM wallet_transactions WHERE rider_id = $1
		ORDER BY created_at DESC LIMIT 200
	`

	rows, err := r.q.QueryContext(ctx, query, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var metadata []byte
		if err := rows.Scan(
			&tx.ID,
			&tx.RiderID,
			&tx.Type,
			&tx.Amount,
			&tx.Fee,
			&tx.Status,
			&metadata,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
				return nil, err
			}
		}
		transactions = append(transactions, &tx)
	}
	return transactions, rows.Err()
}

// SumCompleted returns the signed sum of COMPLETED transactions.
func (r *WalletRepository) SumCompleted(ctx context.Context, riderID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type IN ('RIDE_PAYMENT', 'WITHDRAWAL') THEN -amount ELSE amount END), 0)
		FROM wallet_transactions
		WHERE rider_id = $1 AND status = $2
	`

	var sum float64
	err := r.q.QueryRowContext(ctx, query, riderID, domain.TransactionStatusCompleted).Scan(&sum)
	if err != nil {
		return 0, err
	}

	return sum, nil
}
