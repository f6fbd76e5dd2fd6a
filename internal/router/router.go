package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"GeoAttend/config"
	"GeoAttend/internal/handler"
	"GeoAttend/internal/middleware"
	"GeoAttend/pkg/token"
)

func Register(h *server.Hertz) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware(config.Cfg.CORSAllowedOrigins))

	h.GET("/healthz", handler.Health)

	v1 := h.Group("/v1")
	// 认证之后再挂 otel，span 上才有员工 ID
	v1.Use(middleware.AuthMiddleware(), middleware.OpenTelemetryMiddleware())

	// 考勤路由
	attendance := v1.Group("/attendance")
	{
		attendance.GET("/eligibility", handler.GetEligibility)
		attendance.POST("/check-in", middleware.AttendanceRateLimitMiddleware(), handler.CheckIn)
		attendance.POST("/check-out", middleware.AttendanceRateLimitMiddleware(), handler.CheckOut)
		attendance.GET("/today", handler.GetToday)
		attendance.GET("/history", handler.GetHistory)
	}

	// 远程办公申请
	remoteWork := v1.Group("/remote-work")
	{
		remoteWork.POST("", handler.CreateRemoteWork)
		remoteWork.GET("", handler.ListMyRemoteWork)
	}

	// 管理端
	admin := v1.Group("/admin", middleware.RequireRole(token.RoleAdmin))
	{
		admin.GET("/remote-work", handler.ListRemoteWork)
		admin.POST("/remote-work/:id/approve", handler.ApproveRemoteWork)
		admin.POST("/remote-work/:id/reject", handler.RejectRemoteWork)

		admin.GET("/zones", handler.ListZones)
		admin.POST("/zones", handler.CreateZone)
		admin.PUT("/zones/:id", handler.UpdateZone)
		admin.POST("/zones/:id/deactivate", handler.DeactivateZone)
	}
}
