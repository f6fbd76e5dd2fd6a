package dto

import "time"

// ========== Attendance 相关 DTO ==========

// LocationReportRequest 客户端定位上报，GET 走 query，POST 走 body
type LocationReportRequest struct {
	Latitude  *float64 `json:"lat" query:"lat"`
	Longitude *float64 `json:"lng" query:"lng"`
	Accuracy  float64  `json:"accuracy" query:"accuracy"`
	// RFC3339 或毫秒时间戳
	CapturedAt string `json:"captured_at" query:"captured_at"`
	Permission string `json:"permission" query:"permission"`
	ErrorCode  string `json:"error_code" query:"error_code"`
	SessionID  string `json:"session_id" query:"session_id"`
}

// NearestZoneData 最近的办公区域
type NearestZoneData struct {
	ZoneID         string  `json:"zone_id"`
	ZoneName       string  `json:"zone_name"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
}

// LocationErrorData 定位失败详情
type LocationErrorData struct {
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Remediation string `json:"remediation"`
}

// LocationData 服务端采用的定位结果
type LocationData struct {
	CapturedAt     time.Time `json:"captured_at"`
	Latitude       float64   `json:"lat"`
	Longitude      float64   `json:"lng"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
}

// EligibilityData 资格判定结果
type EligibilityData struct {
	Nearest                 *NearestZoneData   `json:"nearest_zone,omitempty"`
	Location                *LocationData      `json:"location,omitempty"`
	LocationError           *LocationErrorData `json:"location_error,omitempty"`
	Date                    string             `json:"date"`
	Reason                  string             `json:"reason"`
	Message                 string             `json:"message"`
	Remediation             string             `json:"remediation,omitempty"`
	GrantMatch              string             `json:"grant_match,omitempty"`
	GrantID                 string             `json:"grant_id,omitempty"`
	CanAttend               bool               `json:"can_attend"`
	UsedRemoteWorkException bool               `json:"used_remote_work_exception"`
}

// AttendanceRecordData 单日考勤记录
type AttendanceRecordData struct {
	CheckInAt               *time.Time `json:"check_in_at,omitempty"`
	CheckOutAt              *time.Time `json:"check_out_at,omitempty"`
	LocationLat             *float64   `json:"location_lat,omitempty"`
	LocationLng             *float64   `json:"location_lng,omitempty"`
	EmployeeID              string     `json:"employee_id"`
	Date                    string     `json:"date"`
	LocationLabel           string     `json:"location_label"`
	Status                  string     `json:"status"`
	UsedRemoteWorkException bool       `json:"used_remote_work_exception"`
}

// CheckInResponse 签到成功响应
type CheckInResponse struct {
	Record      *AttendanceRecordData `json:"record"`
	Eligibility EligibilityData       `json:"eligibility"`
}

// TodayResponse 当天未签到时 Record 为空
type TodayResponse struct {
	Record     *AttendanceRecordData `json:"record"`
	Date       string                `json:"date"`
	CheckedIn  bool                  `json:"checked_in"`
	CheckedOut bool                  `json:"checked_out"`
}

// HistoryQuery 历史记录查询参数
type HistoryQuery struct {
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit"`
}
