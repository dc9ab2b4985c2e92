package municipios

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "regionmap:features:"

// FeatureCache keeps normalized features in redis so restarts skip the
// record fetch and normalization.
type FeatureCache struct {
	rdb *redis.Client
	ttl time.Duration
}

type cachedLoad struct {
	Features []geo.Feature `json:"features"`
	Failures []Failure     `json:"failures,omitempty"`
}

// NewFeatureCache connects to the redis instance at url. Returns nil, nil
// when url is empty.
func NewFeatureCache(url string, ttl time.Duration) (*FeatureCache, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &FeatureCache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// NewFeatureCacheWithClient wraps an existing client.
func NewFeatureCacheWithClient(rdb *redis.Client, ttl time.Duration) *FeatureCache {
	return &FeatureCache{rdb: rdb, ttl: ttl}
}

func (c *FeatureCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Load returns the cached load for source. ok is false on a miss.
func (c *FeatureCache) Load(ctx context.Context, source string) ([]geo.Feature, []Failure, bool, error) {
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+source).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMissesTotal.Inc()
		return nil, nil, false, nil
	}
	if err != nil {
		metrics.CacheMissesTotal.Inc()
		return nil, nil, false, fmt.Errorf("redis get: %w", err)
	}
	var cl cachedLoad
	if err := json.Unmarshal(data, &cl); err != nil {
		metrics.CacheMissesTotal.Inc()
		log.Printf("[municipios] discarding unreadable cache entry for %s: %v", source, err)
		return nil, nil, false, nil
	}
	metrics.CacheHitsTotal.Inc()
	return cl.Features, cl.Failures, true, nil
}

// Store saves a load for source.
func (c *FeatureCache) Store(ctx context.Context, source string, features []geo.Feature, failures []Failure) error {
	data, err := json.Marshal(cachedLoad{Features: features, Failures: failures})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+source, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate drops the cached load for source.
func (c *FeatureCache) Invalidate(ctx context.Context, source string) error {
	return c.rdb.Del(ctx, cacheKeyPrefix+source).Err()
}

func (c *FeatureCache) Close() error {
	return c.rdb.Close()
}
