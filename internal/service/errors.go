package service

import "errors"

var (
	// ErrRideAlreadyActive is returned when the rider already has an IN_PROGRESS ride.
	ErrRideAlreadyActive = errors.New("rider already has an active ride")

	// ErrBikeNotFound is returned when the requested bike does not exist.
	ErrBikeNotFound = errors.New("bike not found")

	// ErrBikeUnavailable is returned when the bike is not AVAILABLE.
	ErrBikeUnavailable = errors.New("bike unavailable")

	// ErrInsufficientBalance is returned when the wallet balance is below the
	// required threshold or ride cost.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrRideNotFound is returned when the target ride does not exist.
	ErrRideNotFound = errors.New("ride not found")

	// ErrRideNotActive is returned when the ride is not IN_PROGRESS.
	ErrRideNotActive = errors.New("ride not active")

	// ErrRideNotOwned is returned when the ride belongs to a different rider.
	ErrRideNotOwned = errors.New("ride does not belong to rider")

	// ErrRiderExists is returned when a rider with the same phone is
	// already registered.
	ErrRiderExists = errors.New("rider already registered")

	// ErrRideBusy is returned when another operation on the same rider's
	// ride state is in flight.
	ErrRideBusy = errors.New("concurrent ride operation in progress")

	// ErrInvalidTimeRange is returned when an end time precedes its start time.
	ErrInvalidTimeRange = errors.New("end time precedes start time")

	// ErrNoPricingConfig is returned when no active pricing config exists.
	ErrNoPricingConfig = errors.New("no active pricing config")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidBikeID is returned when bike ID is empty.
	ErrInvalidBikeID = errors.New("invalid bike id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidAmount is returned when a wallet amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidHour is returned when a target hour is outside 0-23.
	ErrInvalidHour = errors.New("invalid hour")

	// ErrInvalidStatusTransition is returned when a requested bike status
	// change is not allowed from the current status.
	ErrInvalidStatusTransition = errors.New("invalid bike status transition")
)
