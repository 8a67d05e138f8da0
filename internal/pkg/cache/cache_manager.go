package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// CacheManager holds the in-process caches shared by the domain packages.
type CacheManager struct {
	// Geocoded addresses, used when Redis is not configured.
	Geocodes *UnifiedCache[models.Coordinates]

	// Device-mode liked sets, keyed by device and venue, used when Redis is
	// not configured.
	DeviceLikes *UnifiedCache[bool]

	// Optimistic like counts shown to a device until persistence catches up.
	LikeViews *UnifiedCache[int]

	// Per-user liked flags read back in account mode.
	AccountLikeViews *UnifiedCache[bool]
}

// NewCacheManager creates the caches with their TTLs.
func NewCacheManager(geocodeTTL time.Duration, logger *zap.Logger) *CacheManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheManager{
		Geocodes:    NewUnifiedCache[models.Coordinates](geocodeTTL, "geocodes", logger),
		DeviceLikes: NewUnifiedCache[bool](NoExpiration, "device_likes", logger),
		LikeViews:   NewUnifiedCache[int](time.Minute, "like_views", logger),

		AccountLikeViews: NewUnifiedCache[bool](30*time.Second, "account_like_views", logger),
	}
}

// GetAllMetrics returns metrics for all caches
func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	return map[string]CacheMetrics{
		"geocodes":     cm.Geocodes.GetMetrics(),
		"device_likes": cm.DeviceLikes.GetMetrics(),
		"like_views":   cm.LikeViews.GetMetrics(),

		"account_like_views": cm.AccountLikeViews.GetMetrics(),
	}
}

// ClearAll clears the caches that can be rebuilt. Device liked sets are kept
// since they are the only record of what a device liked.
func (cm *CacheManager) ClearAll() {
	cm.Geocodes.Clear()
	cm.LikeViews.Clear()
	cm.AccountLikeViews.Clear()
}
