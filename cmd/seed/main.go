package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"GeoAttend/config"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/token"
	"GeoAttend/storage/database"
)

// seed 导入办公区域，并可签发本地联调用的 token
func main() {
	zonesPath := flag.String("zones", "", "path to zones yaml file")
	tokenFor := flag.String("token", "", "print a dev token for this employee id")
	role := flag.String("role", token.RoleEmployee, "role of the dev token (employee or admin)")
	ttl := flag.Duration("ttl", 24*time.Hour, "lifetime of the dev token")
	flag.Parse()

	logger.Init()
	defer logger.Sync()

	cfg := config.Cfg

	if *zonesPath != "" {
		zones, err := loadZones(*zonesPath, cfg.DefaultZoneRadius)
		if err != nil {
			logger.Logger.Fatal("Invalid zones file", zap.String("path", *zonesPath), zap.Error(err))
		}

		if err := database.Init(); err != nil {
			logger.Logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer func() { _ = database.Close(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := upsertZones(ctx, database.DB(), zones); err != nil {
			logger.Logger.Fatal("Failed to seed zones", zap.Error(err))
		}
		logger.Logger.Info("Zones seeded", zap.Int("count", len(zones)))
	}

	if *tokenFor != "" {
		if cfg.IsProduction() {
			logger.Logger.Fatal("Refusing to sign dev tokens in production")
		}
		if cfg.JWTSecret == "" {
			logger.Logger.Fatal("JWT_SECRET is required to sign a dev token")
		}
		signed, err := token.Sign(cfg.JWTSecret, *tokenFor, *role, *ttl)
		if err != nil {
			logger.Logger.Fatal("Failed to sign dev token", zap.Error(err))
		}
		fmt.Println(signed)
	}
}
