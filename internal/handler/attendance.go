package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/location"
	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/response"
)

// GetEligibility 预览当前能否打卡，不写库
// GET /v1/attendance/eligibility
func GetEligibility(ctx context.Context, c *app.RequestContext) {
	employeeID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	var req dto.LocationReportRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	report, err := toReport(req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	ev, err := attendanceService().Evaluate(ctx, employeeID, req.SessionID, report)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toEligibility(ev))
}

// CheckIn 签到，资格由服务端重新判定
// POST /v1/attendance/check-in
func CheckIn(ctx context.Context, c *app.RequestContext) {
	employeeID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	var req dto.LocationReportRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	report, err := toReport(req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	result, err := attendanceService().CheckIn(ctx, employeeID, req.SessionID, report)
	if err != nil {
		// 判定结果一并返回，客户端据此展示原因和处理建议
		if result != nil && result.Evaluation != nil {
			response.ErrorWithDetails(ctx, c, err, map[string]interface{}{
				"eligibility": toEligibility(result.Evaluation),
			})
			return
		}
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.CheckInResponse{
		Record:      toRecord(result.Record),
		Eligibility: toEligibility(result.Evaluation),
	})
}

// CheckOut 签退
// POST /v1/attendance/check-out
func CheckOut(ctx context.Context, c *app.RequestContext) {
	employeeID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	record, err := attendanceService().CheckOut(ctx, employeeID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toRecord(record))
}

// GetToday 当天考勤状态
// GET /v1/attendance/today
func GetToday(ctx context.Context, c *app.RequestContext) {
	employeeID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	svc := attendanceService()
	record, err := svc.Today(ctx, employeeID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.TodayResponse{
		Date:       svc.TodayKey(),
		Record:     toRecord(record),
		CheckedIn:  record.HasCheckedIn(),
		CheckedOut: record.HasCheckedOut(),
	})
}

// GetHistory 历史考勤记录，按日期倒序
// GET /v1/attendance/history
func GetHistory(ctx context.Context, c *app.RequestContext) {
	employeeID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	var query dto.HistoryQuery
	if err := c.BindAndValidate(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	records, err := attendanceService().History(ctx, employeeID, query.From, query.To, query.Limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	items := make([]*dto.AttendanceRecordData, 0, len(records))
	for i := range records {
		items = append(items, toRecord(&records[i]))
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{
		"count": len(items),
	})
}

func toReport(req dto.LocationReportRequest) (location.Report, error) {
	capturedAt, err := parseCapturedAt(req.CapturedAt)
	if err != nil {
		return location.Report{}, errors.InvalidRequest.WithMessage("captured_at must be RFC3339 or epoch milliseconds")
	}
	if req.Latitude != nil && req.Longitude != nil {
		if err := (model.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}).Validate(); err != nil {
			return location.Report{}, errors.Wrap(errors.InvalidRequest.WithMessage("lat / lng out of range"), err)
		}
	}
	if req.Accuracy < 0 {
		return location.Report{}, errors.InvalidRequest.WithMessage("accuracy must not be negative")
	}

	return location.Report{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.Accuracy,
		CapturedAt:     capturedAt,
		Permission:     location.ParsePermission(req.Permission),
		ErrorCode:      req.ErrorCode,
	}, nil
}

// parseCapturedAt 浏览器定位 API 给的是毫秒时间戳
func parseCapturedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func toEligibility(ev *service.Evaluation) dto.EligibilityData {
	v := ev.Verdict
	data := dto.EligibilityData{
		Date:                    ev.Date,
		CanAttend:               v.CanAttend,
		Reason:                  string(v.Reason),
		Message:                 v.Reason.Message(),
		Remediation:             v.Reason.Remediation(),
		UsedRemoteWorkException: v.UsedRemoteWorkException,
	}

	if n := v.Nearest; n != nil {
		data.Nearest = &dto.NearestZoneData{
			ZoneID:         n.Zone.ID,
			ZoneName:       n.Zone.Name,
			DistanceMeters: n.DistanceMeters,
			RadiusMeters:   n.Zone.RadiusMeters,
		}
	}
	if s := ev.Sample; s != nil {
		data.Location = &dto.LocationData{
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			AccuracyMeters: s.AccuracyMeters,
			CapturedAt:     s.CapturedAt,
		}
	}
	if le := ev.LocationError; le != nil {
		data.LocationError = &dto.LocationErrorData{
			Code:        le.Kind.Definition().Code,
			Kind:        string(le.Kind),
			Message:     le.Message,
			Remediation: le.Remediation(),
		}
		// 定位失败时优先给出定位相关的建议
		if !v.CanAttend {
			data.Remediation = le.Remediation()
		}
	}
	if ev.Grant.Granted {
		data.GrantMatch = string(ev.Grant.Match)
		if ev.Grant.Grant != nil {
			data.GrantID = strconv.FormatInt(ev.Grant.Grant.ID, 10)
		}
	}
	return data
}

func toRecord(r *model.AttendanceRecord) *dto.AttendanceRecordData {
	if r == nil {
		return nil
	}
	return &dto.AttendanceRecordData{
		EmployeeID:              r.EmployeeID,
		Date:                    r.Date,
		CheckInAt:               r.CheckInAt,
		CheckOutAt:              r.CheckOutAt,
		LocationLat:             r.LocationLat,
		LocationLng:             r.LocationLng,
		LocationLabel:           r.LocationLabel,
		Status:                  string(r.Status),
		UsedRemoteWorkException: r.UsedRemoteWorkException,
	}
}
