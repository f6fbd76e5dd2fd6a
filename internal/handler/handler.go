package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/middleware"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/response"
)

// 服务实例，测试里替换
var (
	attendanceService = service.Attendance
	zoneService       = service.Zones
	remoteWorkService = service.RemoteWork
)

// currentEmployee 取不到身份时已经写好 401 响应
func currentEmployee(ctx context.Context, c *app.RequestContext) (string, bool) {
	employeeID, ok := middleware.GetEmployeeID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return "", false
	}
	return employeeID, true
}
