package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"GeoAttend/config"
	"GeoAttend/pkg/logger"
	"GeoAttend/storage/database"
	"GeoAttend/storage/redis"
)

// Checker 依赖探活
type Checker func(ctx context.Context) error

var healthCheckers = map[string]Checker{
	"database": func(ctx context.Context) error {
		sqlDB, err := database.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	},
	"redis": func(ctx context.Context) error {
		return redis.Client().Ping(ctx).Err()
	},
}

// Health 任一依赖不可用返回 503；Redis 不可用时业务仍可降级运行，但这里如实上报
// GET /healthz
func Health(ctx context.Context, c *app.RequestContext) {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(healthCheckers))
	for name, check := range healthCheckers {
		if err := check(checkCtx); err != nil {
			logger.Logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, map[string]interface{}{
		"status":  state,
		"service": config.Cfg.ServiceName,
		"version": config.Cfg.ServiceVersion,
		"checks":  checks,
	})
}
