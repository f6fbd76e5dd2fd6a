package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"GeoAttend/internal/model"
	"GeoAttend/pkg/logger"
)

// Models 需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&model.GeofenceZone{},
		&model.RemoteWorkGrant{},
		&model.AttendanceRecord{},
		&model.AttendanceAttempt{},
	}
}

// Migrate 对全局连接运行迁移
func Migrate() error {
	return MigrateDB(DB())
}

// MigrateDB 创建或更新所有表，测试中对 sqlite 连接同样适用
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	if err := db.AutoMigrate(Models()...); err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
