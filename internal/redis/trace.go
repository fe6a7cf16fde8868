package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// traceRetention bounds how long GPS samples are kept per bike.
const traceRetention = 48 * time.Hour

// TracePoint is one GPS sample from a bike.
type TracePoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"ts"`
}

// TraceStore keeps time-ordered GPS samples per bike in a Redis sorted set
// scored by unix timestamp.
type TraceStore struct {
	client *redis.Client
}

// NewTraceStore creates a new TraceStore.
func NewTraceStore(client *redis.Client) *TraceStore {
	return &TraceStore{client: client}
}

func traceKey(bikeID string) string {
	return fmt.Sprintf("trace:bike:%s", bikeID)
}

// Append stores one GPS sample and trims samples past the retention window.
func (s *TraceStore) Append(ctx context.Context, bikeID string, point TracePoint) error {
	data, err := json.Marshal(point)
	if err != nil {
		return err
	}

	key := traceKey(bikeID)
	if err := s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(point.Timestamp.Unix()),
		Member: data,
	}).Err(); err != nil {
		return err
	}

	cutoff := time.Now().Add(-traceRetention).Unix()
	return s.client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", cutoff)).Err()
}

// GetTrace returns the bike's samples in [from, to], oldest first. An empty
// slice is a valid result; callers fall back to straight-line distance.
func (s *TraceStore) GetTrace(ctx context.Context, bikeID string, from, to time.Time) ([]TracePoint, error) {
	entries, err := s.client.ZRangeByScore(ctx, traceKey(bikeID), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", from.Unix()),
		Max: fmt.Sprintf("%d", to.Unix()),
	}).Result()
	if err != nil {
		return nil, err
	}

	points := make([]TracePoint, 0, len(entries))
	for _, entry := range entries {
		var point TracePoint
		if err := json.Unmarshal([]byte(entry), &point); err != nil {
			return nil, err
		}
		points = append(points, point)
	}

	return points, nil
}
