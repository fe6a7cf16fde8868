package tests

import (
	"context"
	"errors"
	"testing"

	"bikeshare/internal/service"
)

// ──────────────────────────────────────────────
// RIDER REGISTRATION
// ──────────────────────────────────────────────

func TestRegisterRider_ProvisionsWallet(t *testing.T) {
	t.Parallel()

	riderRepo := NewMockRiderRepository()
	walletRepo := NewMockWalletRepository()
	svc := service.NewRiderService(riderRepo, walletRepo)

	rider, err := svc.RegisterRider(context.Background(), service.RegisterRiderRequest{
		Name:  "Alex",
		Phone: "+49-151-0001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rider.ID == "" {
		t.Error("rider ID not assigned")
	}
	// Registration provisions an empty wallet so the first ride does not
	// race wallet creation.
	wallet, err := walletRepo.GetByRiderID(context.Background(), rider.ID)
	if err != nil {
		t.Fatalf("wallet not provisioned: %v", err)
	}
	if wallet.Balance != 0 {
		t.Errorf("expected fresh wallet balance 0, got %f", wallet.Balance)
	}
}

func TestRegisterRider_DuplicatePhoneRejected(t *testing.T) {
	t.Parallel()

	riderRepo := NewMockRiderRepository()
	svc := service.NewRiderService(riderRepo, NewMockWalletRepository())
	ctx := context.Background()

	if _, err := svc.RegisterRider(ctx, service.RegisterRiderRequest{Name: "Alex", Phone: "+49-151-0001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.RegisterRider(ctx, service.RegisterRiderRequest{Name: "Sam", Phone: "+49-151-0001"})
	if !errors.Is(err, service.ErrRiderExists) {
		t.Errorf("expected ErrRiderExists, got %v", err)
	}

	riders, err := svc.ListRiders(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(riders) != 1 {
		t.Errorf("expected 1 rider after rejected duplicate, got %d", len(riders))
	}
}

func TestRegisterRider_RequiresName(t *testing.T) {
	t.Parallel()

	svc := service.NewRiderService(NewMockRiderRepository(), NewMockWalletRepository())

	if _, err := svc.RegisterRider(context.Background(), service.RegisterRiderRequest{Phone: "+49-151-0001"}); err == nil {
		t.Error("expected error for missing name")
	}
}
