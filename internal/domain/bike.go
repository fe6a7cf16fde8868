package domain

import "time"

// BikeStatus represents the current status of a bike.
type BikeStatus string

const (
	BikeStatusAvailable   BikeStatus = "AVAILABLE"
	BikeStatusInUse       BikeStatus = "IN_USE"
	BikeStatusMaintenance BikeStatus = "MAINTENANCE"
	BikeStatusUnavailable BikeStatus = "UNAVAILABLE"
)

// Bike represents a bike in the fleet.
// A bike transitions to IN_USE only from AVAILABLE, and back to AVAILABLE
// only from IN_USE; maintenance and unavailable bikes are never ride-eligible.
type Bike struct {
	ID           string
	Label        string // Physical label on the bike, e.g. "CITY-0042"
	Status       BikeStatus
	BatteryLevel int // Percent, 0-100
	Lat          float64
	Lng          float64
	UpdatedAt    time.Time
}

// RideEligible reports whether the bike can be unlocked for a new ride.
func (b *Bike) RideEligible() bool {
	return b.Status == BikeStatusAvailable
}
