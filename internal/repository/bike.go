package repository

import (
	"context"

	"bikeshare/internal/domain"
)

// BikeRepository defines the persistence operations for bikes.
type BikeRepository interface {
	// Create persists a new bike.
	Create(ctx context.Context, bike *domain.Bike) error

	// GetByID retrieves a bike by ID.
	GetByID(ctx context.Context, id string) (*domain.Bike, error)

	// GetAll retrieves all bikes.
	GetAll(ctx context.Context) ([]*domain.Bike, error)

	// UpdateStatus transitions a bike from one status to another.
	// The update is conditional on the current status: it returns
	// ErrConflict if the bike is not in the expected status, so two
	// concurrent transitions cannot both succeed.
	UpdateStatus(ctx context.Context, id string, from, to domain.BikeStatus) error

	// UpdateLocation stores the bike's last known coordinates.
	UpdateLocation(ctx context.Context, id string, lat, lng float64) error

	// UpdateTelemetry stores coordinates and battery level in one write.
	UpdateTelemetry(ctx context.Context, id string, lat, lng float64, battery int) error
}
