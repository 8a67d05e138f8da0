package likes

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/go-tekuteku/internal/pkg/cache"
)

// LikedSet is the per-device record of liked venues. Add and Remove report
// whether the set actually changed.
type LikedSet interface {
	Add(ctx context.Context, deviceID string, venueID uuid.UUID) (bool, error)
	Remove(ctx context.Context, deviceID string, venueID uuid.UUID) (bool, error)
	Contains(ctx context.Context, deviceID string, venueID uuid.UUID) (bool, error)
}

// RedisLikedSet keeps one Redis set per device.
type RedisLikedSet struct {
	client *redis.Client
}

func NewRedisLikedSet(client *redis.Client) *RedisLikedSet {
	return &RedisLikedSet{client: client}
}

func deviceKey(deviceID string) string {
	return "device_likes:" + deviceID
}

func (s *RedisLikedSet) Add(ctx context.Context, deviceID string, venueID uuid.UUID) (bool, error) {
	n, err := s.client.SAdd(ctx, deviceKey(deviceID), venueID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record device like: %w", err)
	}
	return n == 1, nil
}

func (s *RedisLikedSet) Remove(ctx context.Context, deviceID string, venueID uuid.UUID) (bool, error) {
	n, err := s.client.SRem(ctx, deviceKey(deviceID), venueID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove device like: %w", err)
	}
	return n == 1, nil
}

func (s *RedisLikedSet) Contains(ctx context.Context, deviceID string, venueID uuid.UUID) (bool, error) {
	ok, err := s.client.SIsMember(ctx, deviceKey(deviceID), venueID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read device like: %w", err)
	}
	return ok, nil
}

// MemoryLikedSet keeps liked flags in process. Used when Redis is not
// configured; contents are lost on restart.
type MemoryLikedSet struct {
	mu    sync.Mutex
	store *cache.UnifiedCache[bool]
}

func NewMemoryLikedSet(store *cache.UnifiedCache[bool]) *MemoryLikedSet {
	return &MemoryLikedSet{store: store}
}

func (s *MemoryLikedSet) Add(_ context.Context, deviceID string, venueID uuid.UUID) (bool, error) {
	key := deviceID + ":" + venueID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if liked, ok := s.store.Get(key); ok && liked {
		return false, nil
	}
	s.store.SetWithTTL(key, true, cache.NoExpiration)
	return true, nil
}

func (s *MemoryLikedSet) Remove(_ context.Context, deviceID string, venueID uuid.UUID) (bool, error) {
	key := deviceID + ":" + venueID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if liked, ok := s.store.Get(key); !ok || !liked {
		return false, nil
	}
	s.store.Delete(key)
	return true, nil
}

func (s *MemoryLikedSet) Contains(_ context.Context, deviceID string, venueID uuid.UUID) (bool, error) {
	liked, ok := s.store.Get(deviceID + ":" + venueID.String())
	return ok && liked, nil
}
