package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

const pricingCachePrefix = "cache:pricing:"

// GetPricingSnapshot retrieves a cached, JSON-encoded pricing snapshot for
// the given resolution key ("YYYY-MM-DD:HH"). Returns (nil, nil) on miss.
func (s *CacheStore) GetPricingSnapshot(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, pricingCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // Cache miss
		}
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetPricingSnapshot caches a pricing snapshot with the given TTL,
// typically the remainder of the hour the snapshot was resolved for.
func (s *CacheStore) SetPricingSnapshot(ctx context.Context, key string, snapshot any, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, pricingCachePrefix+key, data, ttl).Err()
}
