package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	ri "github.com/redis/go-redis/v9"

	"GeoAttend/storage/redis"
)

const (
	// 空值缓存标识
	emptyValueFlag = "__EMPTY__"
	emptyValueTTL  = time.Minute
)

// ProtectedCache JSON 缓存，带空值保护和 TTL 抖动
type ProtectedCache struct {
	keyPrefix string
	ttl       time.Duration
	emptyTTL  time.Duration
	// TTL 上随机加的比例，避免同一批 key 同时过期
	jitterRatio float64
}

func NewProtectedCache(keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		keyPrefix:   keyPrefix,
		ttl:         ttl,
		emptyTTL:    emptyValueTTL,
		jitterRatio: 0.1,
	}
}

func (pc *ProtectedCache) key(key string) string {
	return redis.Key(pc.keyPrefix, key)
}

func (pc *ProtectedCache) expiry() time.Duration {
	if pc.ttl <= 0 || pc.jitterRatio <= 0 {
		return pc.ttl
	}
	jitter := time.Duration(rand.Int63n(int64(float64(pc.ttl)*pc.jitterRatio) + 1))
	return pc.ttl + jitter
}

// Set value 为 nil 时写空值标识
func (pc *ProtectedCache) Set(ctx context.Context, key string, value interface{}) error {
	if value == nil {
		return redis.Client().Set(ctx, pc.key(key), emptyValueFlag, pc.emptyTTL).Err()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return redis.Client().Set(ctx, pc.key(key), data, pc.expiry()).Err()
}

// Get 返回是否命中；命中空值时 dest 保持不变
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := redis.Client().Get(ctx, pc.key(key)).Result()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache: %w", err)
	}

	if data == emptyValueFlag {
		return true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (pc *ProtectedCache) Delete(ctx context.Context, key string) error {
	return redis.Client().Del(ctx, pc.key(key)).Err()
}
