package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// NoExpiration keeps entries until they are deleted.
const NoExpiration = gocache.NoExpiration

// CacheMetrics tracks cache performance
type CacheMetrics struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// UnifiedCache is a typed, named wrapper over go-cache with hit/miss counters.
type UnifiedCache[T any] struct {
	store  *gocache.Cache
	ttl    time.Duration
	name   string
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewUnifiedCache creates a cache whose entries live for ttl (or forever with
// NoExpiration).
func NewUnifiedCache[T any](ttl time.Duration, name string, logger *zap.Logger) *UnifiedCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := 10 * time.Minute
	if ttl > 0 && ttl/2 < cleanup {
		cleanup = ttl / 2
	}
	return &UnifiedCache[T]{
		store:  gocache.New(ttl, cleanup),
		ttl:    ttl,
		name:   name,
		logger: logger,
	}
}

// Set stores an item with the cache default TTL.
func (c *UnifiedCache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores an item with an explicit TTL.
func (c *UnifiedCache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.store.Set(key, value, ttl)
	c.sets.Add(1)
	c.logger.Debug("Cache set",
		zap.String("cache", c.name),
		zap.String("key", key),
	)
}

// Get retrieves an item from the cache
func (c *UnifiedCache[T]) Get(key string) (T, bool) {
	raw, found := c.store.Get(key)
	if !found {
		c.misses.Add(1)
		var zero T
		c.logger.Debug("Cache miss",
			zap.String("cache", c.name),
			zap.String("key", key),
		)
		return zero, false
	}

	value, ok := raw.(T)
	if !ok {
		c.misses.Add(1)
		var zero T
		return zero, false
	}

	c.hits.Add(1)
	return value, true
}

// Delete removes an item from the cache
func (c *UnifiedCache[T]) Delete(key string) {
	c.store.Delete(key)
	c.logger.Debug("Cache delete",
		zap.String("cache", c.name),
		zap.String("key", key),
	)
}

// Clear removes all items from the cache
func (c *UnifiedCache[T]) Clear() {
	c.store.Flush()
	c.logger.Info("Cache cleared", zap.String("cache", c.name))
}

// GetMetrics returns current cache metrics
func (c *UnifiedCache[T]) GetMetrics() CacheMetrics {
	return CacheMetrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}

// Size returns the number of items in the cache, expired ones included until
// the next cleanup pass.
func (c *UnifiedCache[T]) Size() int {
	return c.store.ItemCount()
}

// Key joins the parts into a namespaced cache key. Free-text parts are
// normalised and hashed so keys stay short.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}
