package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for bike location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, bikeID string, lat, lng float64) error
	FindNearbyBikes(ctx context.Context, lat, lng, radiusKm float64) ([]BikeLocation, error)
	RemoveLocation(ctx context.Context, bikeID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (bool, error)
	ReleaseRiderLock(ctx context.Context, riderID string) error
}

// TraceStoreInterface defines the interface for GPS trace storage.
type TraceStoreInterface interface {
	Append(ctx context.Context, bikeID string, point TracePoint) error
	GetTrace(ctx context.Context, bikeID string, from, to time.Time) ([]TracePoint, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ TraceStoreInterface    = (*TraceStore)(nil)
)
