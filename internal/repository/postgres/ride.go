package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, rider_id, bike_id, start_lat, start_lng, end_lat, end_lng, distance_km, duration_min, cost, status, started_at, ended_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		ride.BikeID,
		ride.StartLat,
		ride.StartLng,
		nullFloat(ride.EndLat, ride.Status != domain.RideStatusInProgress),
		nullFloat(ride.EndLng, ride.Status != domain.RideStatusInProgress),
		ride.DistanceKm,
		ride.DurationMin,
		ride.Cost,
		ride.Status,
		ride.StartedAt,
		nullTime(ride.EndedAt),
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetActiveByRiderID retrieves the rider's IN_PROGRESS ride, or nil.
func (r *RideRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_id = $1 AND status = $2 LIMIT 1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, riderID, domain.RideStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ride, nil
}

// GetByRiderID retrieves all rides for a rider, newest first.
func (r *RideRepository) GetByRiderID(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_id = $1 ORDER BY started_at DESC LIMIT 100`
	return r.queryRides(ctx, query, riderID)
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY started_at DESC LIMIT 100`
	return r.queryRides(ctx, query)
}

// Complete marks an IN_PROGRESS ride COMPLETED with its final fields.
// The update is conditional on the current status so a second completion
// attempt cannot succeed.
func (r *RideRepository) Complete(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET status = $1, end_lat = $2, end_lng = $3, distance_km = $4, duration_min = $5, cost = $6, ended_at = $7
		WHERE id = $8 AND status = $9
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusCompleted,
		ride.EndLat,
		ride.EndLng,
		ride.DistanceKm,
		ride.DurationMin,
		ride.Cost,
		ride.EndedAt,
		ride.ID,
		domain.RideStatusInProgress,
	)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

// Cancel marks an IN_PROGRESS ride CANCELLED.
func (r *RideRepository) Cancel(ctx context.Context, id string, endedAt time.Time) error {
	query := `
		UPDATE rides
		SET status = $1, ended_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusCancelled,
		endedAt,
		id,
		domain.RideStatusInProgress,
	)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

func (r *RideRepository) queryRides(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var endLat, endLng sql.NullFloat64
	var endedAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&ride.BikeID,
		&ride.StartLat,
		&ride.StartLng,
		&endLat,
		&endLng,
		&ride.DistanceKm,
		&ride.DurationMin,
		&ride.Cost,
		&ride.Status,
		&ride.StartedAt,
		&endedAt,
	)
	if err != nil {
		return nil, err
	}

	if endLat.Valid {
		ride.EndLat = endLat.Float64
	}
	if endLng.Valid {
		ride.EndLng = endLng.Float64
	}
	if endedAt.Valid {
		ride.EndedAt = endedAt.Time
	}

	return &ride, nil
}

func nullFloat(v float64, valid bool) sql.NullFloat64 {
	if !valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireRowAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}
