package tests

import (
	"context"
	"errors"
	"testing"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

func newWalletService(walletRepo *MockWalletRepository) (*service.WalletService, *MockUnitOfWork) {
	uow := NewMockUnitOfWork(NewMockRideRepository(), NewMockBikeRepository(), walletRepo, NewMockPricingRepository())
	return service.NewWalletService(uow, walletRepo), uow
}

// ──────────────────────────────────────────────
// WALLET OPERATIONS AND LEDGER
// ──────────────────────────────────────────────

func TestWallet_TopUpAndWithdraw(t *testing.T) {
	t.Parallel()

	walletRepo := NewMockWalletRepository()
	svc, _ := newWalletService(walletRepo)
	ctx := context.Background()

	balance, err := svc.TopUp(ctx, "rider-1", 25.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 25.0 {
		t.Errorf("expected balance 25.0, got %f", balance)
	}

	balance, err = svc.Withdraw(ctx, "rider-1", 10.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 15.0 {
		t.Errorf("expected balance 15.0, got %f", balance)
	}

	// Every balance mutation leaves exactly one ledger entry.
	txs, err := svc.Transactions(ctx, "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(txs))
	}
	// Newest first.
	if txs[0].Type != domain.TransactionTypeWithdrawal {
		t.Errorf("expected WITHDRAWAL first, got %s", txs[0].Type)
	}
	if txs[1].Type != domain.TransactionTypeDeposit {
		t.Errorf("expected DEPOSIT second, got %s", txs[1].Type)
	}
}

func TestWallet_WithdrawBeyondBalance(t *testing.T) {
	t.Parallel()

	walletRepo := NewMockWalletRepository()
	walletRepo.SetBalance("rider-1", 5.0)
	svc, _ := newWalletService(walletRepo)

	_, err := svc.Withdraw(context.Background(), "rider-1", 10.0)
	if !errors.Is(err, service.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}

	// The failed withdrawal leaves no ledger entry and no balance change.
	if got := walletRepo.Balance("rider-1"); got != 5.0 {
		t.Errorf("balance changed on failed withdrawal: %f", got)
	}
	if walletRepo.CountTransactions("rider-1") != 0 {
		t.Error("ledger entry written for failed withdrawal")
	}
}

func TestWallet_BalanceAndLedgerCommitTogether(t *testing.T) {
	t.Parallel()

	walletRepo := NewMockWalletRepository()
	walletRepo.SetBalance("rider-1", 20.0)
	walletRepo.CreateTransactionError = ErrMockDBConstraint
	svc, uow := newWalletService(walletRepo)
	ctx := context.Background()

	// A credit whose ledger append fails rolls the balance back too.
	if _, err := svc.TopUp(ctx, "rider-1", 5.0); err == nil {
		t.Fatal("expected topup to fail when the ledger write fails")
	}
	if got := walletRepo.Balance("rider-1"); got != 20.0 {
		t.Errorf("credit survived a failed ledger write: balance %f", got)
	}

	// Same for a debit.
	if _, err := svc.Withdraw(ctx, "rider-1", 15.0); err == nil {
		t.Fatal("expected withdrawal to fail when the ledger write fails")
	}
	if got := walletRepo.Balance("rider-1"); got != 20.0 {
		t.Errorf("debit survived a failed ledger write: balance %f", got)
	}

	if walletRepo.CountTransactions("rider-1") != 0 {
		t.Error("partial ledger entry written")
	}
	if got := uow.RollbackCallCount; got != 2 {
		t.Errorf("expected 2 rollbacks, got %d", got)
	}
}

func TestWallet_InvalidAmounts(t *testing.T) {
	t.Parallel()

	svc, _ := newWalletService(NewMockWalletRepository())
	ctx := context.Background()

	for _, amount := range []float64{0, -1} {
		if _, err := svc.TopUp(ctx, "rider-1", amount); !errors.Is(err, service.ErrInvalidAmount) {
			t.Errorf("topup %f: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := svc.Withdraw(ctx, "rider-1", amount); !errors.Is(err, service.ErrInvalidAmount) {
			t.Errorf("withdraw %f: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestWallet_RefundReferencesRide(t *testing.T) {
	t.Parallel()

	walletRepo := NewMockWalletRepository()
	walletRepo.SetBalance("rider-1", 4.0)
	svc, _ := newWalletService(walletRepo)
	ctx := context.Background()

	balance, err := svc.Refund(ctx, "rider-1", 11.0, "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 15.0 {
		t.Errorf("expected balance 15.0, got %f", balance)
	}

	txs, _ := svc.Transactions(ctx, "rider-1")
	if len(txs) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(txs))
	}
	if txs[0].Type != domain.TransactionTypeRefund {
		t.Errorf("expected REFUND, got %s", txs[0].Type)
	}
	if txs[0].Metadata["ride_id"] != "ride-1" {
		t.Errorf("refund missing ride reference: %v", txs[0].Metadata)
	}
}

// ──────────────────────────────────────────────
// RECONCILIATION
// ──────────────────────────────────────────────

func TestWallet_ReconciliationMatchesLedger(t *testing.T) {
	t.Parallel()

	walletRepo := NewMockWalletRepository()
	svc, _ := newWalletService(walletRepo)
	ctx := context.Background()

	// Deposit 30, withdraw 10, refund 5: balance 25, signed ledger sum
	// +30 - 10 + 5 = 25.
	if _, err := svc.TopUp(ctx, "rider-1", 30.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Withdraw(ctx, "rider-1", 10.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Refund(ctx, "rider-1", 5.0, "ride-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Reconcile(ctx, "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Reconciled {
		t.Errorf("expected reconciled wallet: balance %f, ledger %f", result.Balance, result.LedgerSum)
	}
	if result.Balance != 25.0 || result.LedgerSum != 25.0 {
		t.Errorf("expected 25.0/25.0, got %f/%f", result.Balance, result.LedgerSum)
	}
}

func TestWallet_ReconciliationDetectsDrift(t *testing.T) {
	t.Parallel()

	walletRepo := NewMockWalletRepository()
	svc, _ := newWalletService(walletRepo)
	ctx := context.Background()

	if _, err := svc.TopUp(ctx, "rider-1", 30.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate drift: balance mutated without a ledger entry.
	walletRepo.SetBalance("rider-1", 20.0)

	result, err := svc.Reconcile(ctx, "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reconciled {
		t.Error("expected drift to be detected")
	}
}

func TestWallet_BalanceProvisionsWallet(t *testing.T) {
	t.Parallel()

	svc, _ := newWalletService(NewMockWalletRepository())

	balance, err := svc.Balance(context.Background(), "rider-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Errorf("expected fresh wallet balance 0, got %f", balance)
	}
}
