package geocoding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/cache"
)

// Cache stores resolved addresses. Misses and backend errors look the same
// to the caller.
type Cache interface {
	Get(ctx context.Context, key string) (models.Coordinates, bool)
	Set(ctx context.Context, key string, at models.Coordinates)
}

// MemoryCache keeps results in process.
type MemoryCache struct {
	store *cache.UnifiedCache[models.Coordinates]
}

func NewMemoryCache(store *cache.UnifiedCache[models.Coordinates]) *MemoryCache {
	return &MemoryCache{store: store}
}

func (c *MemoryCache) Get(_ context.Context, key string) (models.Coordinates, bool) {
	return c.store.Get(key)
}

func (c *MemoryCache) Set(_ context.Context, key string, at models.Coordinates) {
	c.store.Set(key, at)
}

// RedisCache shares results between instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.Coordinates, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Geocode cache read failed", zap.String("key", key), zap.Error(err))
		}
		return models.Coordinates{}, false
	}

	var at models.Coordinates
	if err := json.Unmarshal(raw, &at); err != nil || at.IsZero() {
		return models.Coordinates{}, false
	}
	return at, true
}

func (c *RedisCache) Set(ctx context.Context, key string, at models.Coordinates) {
	payload, err := json.Marshal(at)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
}
