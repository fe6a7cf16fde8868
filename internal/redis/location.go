package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const bikeLocationKey = "bikes:locations"

// BikeLocation represents a bike's position in the geo index.
type BikeLocation struct {
	BikeID string
	Lat    float64
	Lng    float64
}

// LocationStore handles bike location operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a bike's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, bikeID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, bikeLocationKey, &redis.GeoLocation{
		Name:      bikeID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyBikes returns bike positions within the given radius (in
// kilometers), closest first.
func (s *LocationStore) FindNearbyBikes(ctx context.Context, lat, lng, radiusKm float64) ([]BikeLocation, error) {
	results, err := s.client.GeoRadius(ctx, bikeLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]BikeLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, BikeLocation{
			BikeID: r.Name,
			Lat:    r.Latitude,
			Lng:    r.Longitude,
		})
	}

	return locations, nil
}

// RemoveLocation removes a bike's location from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, bikeID string) error {
	return s.client.ZRem(ctx, bikeLocationKey, bikeID).Err()
}
