package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	ri "github.com/redis/go-redis/v9"

	"GeoAttend/storage/redis"
)

const rateLimitPrefix = "rate"

// SlidingWindow zset 滑动窗口计数，返回窗口内（含本次）的请求数
func SlidingWindow(ctx context.Context, subject string, window time.Duration, now time.Time) (int, error) {
	key := redis.Key(rateLimitPrefix, subject)
	windowStart := now.Add(-window)

	pipe := redis.Client().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, ri.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window+10*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}
	return int(card.Val()), nil
}

func Block(ctx context.Context, subject string, d time.Duration) error {
	return redis.Client().Set(ctx, redis.Key(rateLimitPrefix, "block", subject), "1", d).Err()
}

func IsBlocked(ctx context.Context, subject string) (bool, error) {
	n, err := redis.Client().Exists(ctx, redis.Key(rateLimitPrefix, "block", subject)).Result()
	return n > 0, err
}
