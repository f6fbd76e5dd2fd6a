package middleware

import (
	"go.uber.org/zap"

	"GeoAttend/config"
	"GeoAttend/pkg/logger"
)

// Init 初始化所有中间件
func Init() error {
	cfg := config.Cfg
	if err := initAuthMiddleware(cfg.JWTSecret, cfg.JWTTimeout()); err != nil {
		logger.Logger.Error("Failed to initialize auth middleware", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
