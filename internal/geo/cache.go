package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GeocodeCache stores geocoder responses in Redis with a TTL, keyed by
// rounded coordinates. A nil cache or unreachable Redis degrades to a
// direct collaborator call.
type GeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewGeocodeCache builds the cache. client may be nil.
func NewGeocodeCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *GeocodeCache {
	return &GeocodeCache{client: client, ttl: ttl, logger: logger}
}

// Get fetches a cached result for the coordinates.
func (c *GeocodeCache) Get(ctx context.Context, lat, lng float64) (*GeocodeResult, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(lat, lng)).Bytes()
	if err != nil {
		return nil, false
	}
	var result GeocodeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Set stores a geocoder result; failures are logged, not propagated.
func (c *GeocodeCache) Set(ctx context.Context, lat, lng float64, result *GeocodeResult) {
	if c == nil || c.client == nil || result == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(lat, lng), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("geocode cache write failed", zap.Error(err))
	}
}

// Coordinates are rounded to ~110m so nearby reports share entries.
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:%.3f:%.3f", lat, lng)
}
