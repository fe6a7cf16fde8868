package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// RiderService manages rider accounts. Registration also provisions the
// rider's wallet so the first ride does not race wallet creation.
type RiderService struct {
	riderRepo  repository.RiderRepository
	walletRepo repository.WalletRepository
}

// NewRiderService creates a new RiderService.
func NewRiderService(riderRepo repository.RiderRepository, walletRepo repository.WalletRepository) *RiderService {
	return &RiderService{riderRepo: riderRepo, walletRepo: walletRepo}
}

// RegisterRiderRequest contains the parameters for registering a rider.
type RegisterRiderRequest struct {
	Name  string
	Phone string
}

// RegisterRider creates a rider and an empty wallet.
func (s *RiderService) RegisterRider(ctx context.Context, req RegisterRiderRequest) (*domain.Rider, error) {
	if req.Name == "" {
		return nil, ErrInvalidRiderID
	}

	rider := &domain.Rider{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if err := s.riderRepo.Create(ctx, rider); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRiderExists
		}
		return nil, err
	}
	if err := s.walletRepo.EnsureWallet(ctx, rider.ID); err != nil {
		return nil, err
	}

	return rider, nil
}

// GetRider retrieves a rider by ID.
func (s *RiderService) GetRider(ctx context.Context, riderID string) (*domain.Rider, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	return s.riderRepo.GetByID(ctx, riderID)
}

// ListRiders retrieves all riders.
func (s *RiderService) ListRiders(ctx context.Context) ([]*domain.Rider, error) {
	return s.riderRepo.GetAll(ctx)
}
