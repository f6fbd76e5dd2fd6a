package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"GeoAttend/config"
	"GeoAttend/internal/cache"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	KeyPrefix   string
	// 超限后禁止访问的时长，0 表示只按窗口限流
	BlockDuration time.Duration
	Now           func() time.Time
}

// AttendanceRateLimitConfig 打卡相关接口按员工限流
func AttendanceRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:        time.Duration(config.Cfg.RateLimitWindow) * time.Second,
		MaxRequests:   config.Cfg.RateLimitMax,
		KeyPrefix:     "attendance",
		BlockDuration: time.Duration(config.Cfg.RateLimitWindow) * time.Second,
	}
}

func subject(ctx context.Context, c *app.RequestContext, prefix string) string {
	if id, ok := GetEmployeeID(ctx, c); ok {
		return prefix + ":emp:" + id
	}
	return prefix + ":ip:" + c.ClientIP()
}

// RateLimitMiddleware Redis 不可用时放行，只记录日志
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(ctx context.Context, c *app.RequestContext) {
		key := subject(ctx, c, cfg.KeyPrefix)

		if cfg.BlockDuration > 0 {
			blocked, err := cache.IsBlocked(ctx, key)
			if err != nil {
				logger.Logger.Warn("Failed to check block status, allowing request", zap.String("key", key), zap.Error(err))
				c.Next(ctx)
				return
			}
			if blocked {
				response.Error(ctx, c, errors.TooManyRequests)
				c.Abort()
				return
			}
		}

		now := cfg.Now()
		count, err := cache.SlidingWindow(ctx, key, cfg.Window, now)
		if err != nil {
			logger.Logger.Warn("Failed to check rate limit, allowing request", zap.String("key", key), zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(cfg.Window).Unix(), 10))

		if count > cfg.MaxRequests {
			if cfg.BlockDuration > 0 {
				if err := cache.Block(ctx, key, cfg.BlockDuration); err != nil {
					logger.Logger.Warn("Failed to block subject", zap.String("key", key), zap.Error(err))
				}
			}
			logger.Logger.Info("Rate limit exceeded", zap.String("key", key), zap.Int("count", count))
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

// AttendanceRateLimitMiddleware 配置关闭时直接放行
func AttendanceRateLimitMiddleware() app.HandlerFunc {
	if !config.Cfg.RateLimitEnabled {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	return RateLimitMiddleware(AttendanceRateLimitConfig())
}
