package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"GeoAttend/internal/model"
	"GeoAttend/pkg/logger"
)

const activeZonesKey = "active"

// ZoneLoader 缓存未命中时的数据源
type ZoneLoader interface {
	ListActiveZones(ctx context.Context) ([]model.GeofenceZone, error)
}

// ZoneCache 缓存启用中的围栏列表，Redis 不可用时直接读库
type ZoneCache struct {
	loader  ZoneLoader
	cache   *ProtectedCache
	breaker *CircuitBreaker
	group   singleflight.Group
}

func NewZoneCache(loader ZoneLoader, ttl time.Duration, breaker *CircuitBreaker) *ZoneCache {
	if breaker == nil {
		breaker = RedisBreaker
	}
	return &ZoneCache{
		loader:  loader,
		cache:   NewProtectedCache("zones", ttl),
		breaker: breaker,
	}
}

func (z *ZoneCache) ListActiveZones(ctx context.Context) ([]model.GeofenceZone, error) {
	var zones []model.GeofenceZone
	var hit bool
	err := z.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		hit, err = z.cache.Get(ctx, activeZonesKey, &zones)
		return err
	})
	if err != nil {
		logger.Logger.Warn("Zone cache read failed, loading from store", zap.Error(err))
	} else if hit {
		return zones, nil
	}

	// 同一时刻只回源一次
	v, err, _ := z.group.Do(activeZonesKey, func() (interface{}, error) {
		loaded, err := z.loader.ListActiveZones(ctx)
		if err != nil {
			return nil, err
		}
		if err := z.breaker.Call(ctx, func(ctx context.Context) error {
			return z.cache.Set(ctx, activeZonesKey, loaded)
		}); err != nil {
			logger.Logger.Warn("Failed to populate zone cache", zap.Error(err))
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.GeofenceZone), nil
}

// Invalidate 围栏变更后调用
func (z *ZoneCache) Invalidate(ctx context.Context) error {
	return z.breaker.Call(ctx, func(ctx context.Context) error {
		return z.cache.Delete(ctx, activeZonesKey)
	})
}
