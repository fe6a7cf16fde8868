package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/repository"
)

const defaultNearbyRadiusKm = 2.0

// BikeService owns the fleet registry: registration, telemetry ingestion
// and operator status transitions. Ride-driven transitions (AVAILABLE to
// IN_USE and back) go through RideService instead.
type BikeService struct {
	bikeRepo      repository.BikeRepository
	locationStore redis.LocationStoreInterface
	traceStore    redis.TraceStoreInterface
}

// NewBikeService creates a new BikeService.
func NewBikeService(
	bikeRepo repository.BikeRepository,
	locationStore redis.LocationStoreInterface,
	traceStore redis.TraceStoreInterface,
) *BikeService {
	return &BikeService{
		bikeRepo:      bikeRepo,
		locationStore: locationStore,
		traceStore:    traceStore,
	}
}

// RegisterBikeRequest contains the parameters for registering a bike.
type RegisterBikeRequest struct {
	Label        string
	Lat          float64
	Lng          float64
	BatteryLevel int
}

// RegisterBike adds a new bike to the fleet in AVAILABLE status.
func (s *BikeService) RegisterBike(ctx context.Context, req RegisterBikeRequest) (*domain.Bike, error) {
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return nil, ErrInvalidLocation
	}

	bike := &domain.Bike{
		ID:           uuid.New().String(),
		Label:        req.Label,
		Status:       domain.BikeStatusAvailable,
		BatteryLevel: req.BatteryLevel,
		Lat:          req.Lat,
		Lng:          req.Lng,
		UpdatedAt:    time.Now(),
	}

	if err := s.bikeRepo.Create(ctx, bike); err != nil {
		return nil, err
	}

	if s.locationStore != nil {
		_ = s.locationStore.UpdateLocation(ctx, bike.ID, bike.Lat, bike.Lng)
	}

	return bike, nil
}

// GetBike retrieves a bike by ID.
func (s *BikeService) GetBike(ctx context.Context, bikeID string) (*domain.Bike, error) {
	if bikeID == "" {
		return nil, ErrInvalidBikeID
	}

	bike, err := s.bikeRepo.GetByID(ctx, bikeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBikeNotFound
		}
		return nil, err
	}

	return bike, nil
}

// ListBikes retrieves all bikes.
func (s *BikeService) ListBikes(ctx context.Context) ([]*domain.Bike, error) {
	return s.bikeRepo.GetAll(ctx)
}

// UpdateTelemetryRequest contains one GPS/battery report from a bike.
type UpdateTelemetryRequest struct {
	BikeID       string
	Lat          float64
	Lng          float64
	BatteryLevel int
}

// UpdateTelemetry ingests a telemetry report: persists coordinates and
// battery, refreshes the geo index and appends a GPS trace sample. Geo and
// trace writes are best-effort; the database row is the system of record.
func (s *BikeService) UpdateTelemetry(ctx context.Context, req UpdateTelemetryRequest) error {
	if req.BikeID == "" {
		return ErrInvalidBikeID
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return ErrInvalidLocation
	}

	if err := s.bikeRepo.UpdateTelemetry(ctx, req.BikeID, req.Lat, req.Lng, req.BatteryLevel); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBikeNotFound
		}
		return err
	}

	if s.locationStore != nil {
		_ = s.locationStore.UpdateLocation(ctx, req.BikeID, req.Lat, req.Lng)
	}
	if s.traceStore != nil {
		_ = s.traceStore.Append(ctx, req.BikeID, redis.TracePoint{
			Lat:       req.Lat,
			Lng:       req.Lng,
			Timestamp: time.Now(),
		})
	}

	return nil
}

// NearbyBike is a ride-eligible bike with its distance-ordered position.
type NearbyBike struct {
	Bike *domain.Bike
	Lat  float64
	Lng  float64
}

// NearbyBikes returns AVAILABLE bikes within the radius, closest first.
func (s *BikeService) NearbyBikes(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyBike, error) {
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}

	locations, err := s.locationStore.FindNearbyBikes(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyBike, 0, len(locations))
	for _, loc := range locations {
		bike, err := s.bikeRepo.GetByID(ctx, loc.BikeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Stale geo entry; drop it and move on.
				_ = s.locationStore.RemoveLocation(ctx, loc.BikeID)
				continue
			}
			return nil, err
		}
		if !bike.RideEligible() {
			continue
		}
		nearby = append(nearby, NearbyBike{Bike: bike, Lat: loc.Lat, Lng: loc.Lng})
	}

	return nearby, nil
}

// operatorTransitions lists the status changes an operator may request.
// Bikes on a ride (IN_USE) are owned by the ride lifecycle.
var operatorTransitions = map[domain.BikeStatus][]domain.BikeStatus{
	domain.BikeStatusAvailable:   {domain.BikeStatusMaintenance, domain.BikeStatusUnavailable},
	domain.BikeStatusMaintenance: {domain.BikeStatusAvailable, domain.BikeStatusUnavailable},
	domain.BikeStatusUnavailable: {domain.BikeStatusAvailable, domain.BikeStatusMaintenance},
}

// SetStatus applies an operator-requested status change.
func (s *BikeService) SetStatus(ctx context.Context, bikeID string, to domain.BikeStatus) (*domain.Bike, error) {
	bike, err := s.GetBike(ctx, bikeID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, target := range operatorTransitions[bike.Status] {
		if target == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.bikeRepo.UpdateStatus(ctx, bikeID, bike.Status, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, err
	}

	bike.Status = to
	return bike, nil
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
