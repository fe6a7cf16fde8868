package repository

import (
	"context"
	"time"

	"bikeshare/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetActiveByRiderID retrieves the rider's IN_PROGRESS ride.
	// Returns (nil, nil) if the rider has no active ride.
	GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Ride, error)

	// GetByRiderID retrieves all rides for a rider, newest first.
	GetByRiderID(ctx context.Context, riderID string) ([]*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// Complete marks an IN_PROGRESS ride as COMPLETED with its final
	// end fields, cost, distance and duration. Returns ErrConflict if
	// the ride is no longer in progress.
	Complete(ctx context.Context, ride *domain.Ride) error

	// Cancel marks an IN_PROGRESS ride as CANCELLED with the given end
	// timestamp. Returns ErrConflict if the ride is no longer in progress.
	Cancel(ctx context.Context, id string, endedAt time.Time) error
}
