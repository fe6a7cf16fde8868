package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusInProgress RideStatus = "IN_PROGRESS"
	RideStatusCompleted  RideStatus = "COMPLETED"
	RideStatusCancelled  RideStatus = "CANCELLED"
)

// Ride represents one rental session from unlock to lock or cancel.
// Completed and cancelled rides are immutable.
type Ride struct {
	ID          string
	RiderID     string
	BikeID      string
	StartLat    float64
	StartLng    float64
	EndLat      float64
	EndLng      float64
	DistanceKm  float64
	DurationMin int
	Cost        float64
	Status      RideStatus
	StartedAt   time.Time
	EndedAt     time.Time // Zero until completed or cancelled
}

// Active reports whether the ride is still in progress.
func (r *Ride) Active() bool {
	return r.Status == RideStatusInProgress
}
