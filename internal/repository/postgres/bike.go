package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// BikeRepository is a PostgreSQL implementation of repository.BikeRepository.
type BikeRepository struct {
	q Querier
}

// NewBikeRepository creates a new PostgreSQL bike repository.
func NewBikeRepository(db *sql.DB) *BikeRepository {
	return &BikeRepository{q: db}
}

// NewBikeRepositoryWithTx creates a bike repository using a transaction.
func NewBikeRepositoryWithTx(tx *sql.Tx) *BikeRepository {
	return &BikeRepository{q: tx}
}

// Create persists a new bike.
func (r *BikeRepository) Create(ctx context.Context, bike *domain.Bike) error {
	query := `
		INSERT INTO bikes (id, label, status, battery_level, lat, lng, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		bike.ID,
		bike.Label,
		bike.Status,
		bike.BatteryLevel,
		bike.Lat,
		bike.Lng,
		bike.UpdatedAt,
	)

	return err
}

// GetByID retrieves a bike by ID.
func (r *BikeRepository) GetByID(ctx context.Context, id string) (*domain.Bike, error) {
	query := `
		SELECT id, label, status, battery_level, lat, lng, updated_at
		FROM bikes WHERE id = $1
	`

	var bike domain.Bike
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&bike.ID,
		&bike.Label,
		&bike.Status,
		&bike.BatteryLevel,
		&bike.Lat,
		&bike.Lng,
		&bike.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &bike, nil
}

// GetAll retrieves all bikes.
func (r *BikeRepository) GetAll(ctx context.Context) ([]*domain.Bike, error) {
	query := `
		SELECT id, label, status, battery_level, lat, lng, updated_at
		FROM bikes ORDER BY label
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bikes []*domain.Bike
	for rows.Next() {
		var bike domain.Bike
		if err := rows.Scan(
			&bike.ID,
			&bike.Label,
			&bike.Status,
			&bike.BatteryLevel,
			&bike.Lat,
			&bike.Lng,
			&bike.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bikes = append(bikes, &bike)
	}
	return bikes, rows.Err()
}

// UpdateStatus transitions a bike between statuses. The WHERE clause makes
// the transition compare-and-swap: of two concurrent transitions from the
// same status, only one sees an affected row.
func (r *BikeRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BikeStatus) error {
	query := `
		UPDATE bikes SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

// UpdateLocation stores the bike's last known coordinates.
func (r *BikeRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	query := `
		UPDATE bikes SET lat = $1, lng = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.q.ExecContext(ctx, query, lat, lng, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateTelemetry stores coordinates and battery level in one write.
func (r *BikeRepository) UpdateTelemetry(ctx context.Context, id string, lat, lng float64, battery int) error {
	query := `
		UPDATE bikes SET lat = $1, lng = $2, battery_level = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.q.ExecContext(ctx, query, lat, lng, battery, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
