package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// WalletService handles wallet operations outside the ride settlement path:
// balance queries, top-ups, withdrawals and ledger reconciliation.
type WalletService struct {
	uow        repository.UnitOfWork
	walletRepo repository.WalletRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(uow repository.UnitOfWork, walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{uow: uow, walletRepo: walletRepo}
}

// Balance retrieves the rider's current balance, creating an empty wallet
// on first contact.
func (s *WalletService) Balance(ctx context.Context, riderID string) (float64, error) {
	if riderID == "" {
		return 0, ErrInvalidRiderID
	}

	if err := s.walletRepo.EnsureWallet(ctx, riderID); err != nil {
		return 0, err
	}

	wallet, err := s.walletRepo.GetByRiderID(ctx, riderID)
	if err != nil {
		return 0, err
	}

	return wallet.Balance, nil
}

// TopUp credits the wallet and appends a DEPOSIT transaction. The balance
// change and the ledger row commit together.
func (s *WalletService) TopUp(ctx context.Context, riderID string, amount float64) (float64, error) {
	if riderID == "" {
		return 0, ErrInvalidRiderID
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	if err := s.walletRepo.EnsureWallet(ctx, riderID); err != nil {
		return 0, err
	}

	var newBalance float64
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		var err error
		newBalance, err = r.Wallets.Credit(ctx, riderID, amount)
		if err != nil {
			return err
		}
		return r.Wallets.CreateTransaction(ctx, &domain.Transaction{
			ID:        uuid.New().String(),
			RiderID:   riderID,
			Type:      domain.TransactionTypeDeposit,
			Amount:    amount,
			Status:    domain.TransactionStatusCompleted,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Withdraw debits the wallet and appends a WITHDRAWAL transaction in the
// same unit of work. Fails with ErrInsufficientBalance when the balance
// does not cover the amount.
func (s *WalletService) Withdraw(ctx context.Context, riderID string, amount float64) (float64, error) {
	if riderID == "" {
		return 0, ErrInvalidRiderID
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var newBalance float64
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		var err error
		newBalance, err = r.Wallets.Debit(ctx, riderID, amount)
		if err != nil {
			return err
		}
		return r.Wallets.CreateTransaction(ctx, &domain.Transaction{
			ID:        uuid.New().String(),
			RiderID:   riderID,
			Type:      domain.TransactionTypeWithdrawal,
			Amount:    amount,
			Status:    domain.TransactionStatusCompleted,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return 0, ErrInsufficientBalance
		}
		return 0, err
	}

	return newBalance, nil
}

// Refund credits the wallet and appends a REFUND transaction referencing
// the originating ride, committed together.
func (s *WalletService) Refund(ctx context.Context, riderID string, amount float64, rideID string) (float64, error) {
	if riderID == "" {
		return 0, ErrInvalidRiderID
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var newBalance float64
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		var err error
		newBalance, err = r.Wallets.Credit(ctx, riderID, amount)
		if err != nil {
			return err
		}
		return r.Wallets.CreateTransaction(ctx, &domain.Transaction{
			ID:        uuid.New().String(),
			RiderID:   riderID,
			Type:      domain.TransactionTypeRefund,
			Amount:    amount,
			Status:    domain.TransactionStatusCompleted,
			Metadata:  map[string]string{"ride_id": rideID},
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Transactions retrieves the rider's ledger entries, newest first.
func (s *WalletService) Transactions(ctx context.Context, riderID string) ([]*domain.Transaction, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	return s.walletRepo.GetTransactions(ctx, riderID)
}

// ReconciliationResult compares a wallet balance against its ledger.
type ReconciliationResult struct {
	RiderID    string
	Balance    float64
	LedgerSum  float64
	Reconciled bool
}

// Reconcile checks the durability invariant: the balance must equal the
// signed sum of COMPLETED transactions.
func (s *WalletService) Reconcile(ctx context.Context, riderID string) (*ReconciliationResult, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	wallet, err := s.walletRepo.GetByRiderID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	sum, err := s.walletRepo.SumCompleted(ctx, riderID)
	if err != nil {
		return nil, err
	}

	return &ReconciliationResult{
		RiderID:    riderID,
		Balance:    wallet.Balance,
		LedgerSum:  sum,
		Reconciled: round2(wallet.Balance) == round2(sum),
	}, nil
}
