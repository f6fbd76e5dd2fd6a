package service

import (
	"sync"
	"time"

	"GeoAttend/config"
	"GeoAttend/internal/cache"
	"GeoAttend/internal/queue"
	"GeoAttend/internal/repository"
	"GeoAttend/storage/database"
)

// 进程内单例，依赖 storage.Init 之后才能调用

var (
	attendanceService *AttendanceService
	zoneService       *ZoneService
	remoteWorkService *RemoteWorkService
	wireOnce          sync.Once
)

func wire() {
	wireOnce.Do(func() {
		cfg := config.Cfg
		db := database.DB()
		loc := cfg.Location()
		clock := ClockFunc(time.Now)

		zoneRepo := repository.NewZoneRepository(db)
		grantRepo := repository.NewGrantRepository(db)
		zoneCache := cache.NewZoneCache(zoneRepo, cfg.ZoneCacheTTL(), cache.RedisBreaker)

		attendanceService = NewAttendanceService(
			zoneCache,
			grantRepo,
			repository.NewAttendanceRepository(db),
			queue.NewProducer(),
			clock,
			AttendanceConfig{
				Location:       loc,
				WorkStart:      cfg.WorkStartTime,
				LateThreshold:  cfg.LateThreshold(),
				FallbackDays:   cfg.RemoteWorkFallbackDays,
				FallbackLimit:  cfg.RemoteWorkFallbackLimit,
				RetryPause:     cfg.LocationRetryPause(),
				SessionIdleTTL: cfg.LocationSessionIdle(),
			},
		)
		zoneService = NewZoneService(zoneRepo, zoneCache, cfg.DefaultZoneRadius)
		remoteWorkService = NewRemoteWorkService(grantRepo, clock, loc)
	})
}

func Attendance() *AttendanceService {
	wire()
	return attendanceService
}

func Zones() *ZoneService {
	wire()
	return zoneService
}

func RemoteWork() *RemoteWorkService {
	wire()
	return remoteWorkService
}
