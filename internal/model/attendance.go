package model

import "time"

// AttendanceStatus 出勤状态
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// 打卡位置标签
const (
	LabelWorkFromHome   = "Work From Home"
	LabelRemoteLocation = "Remote Location"
)

// AttendanceRecord 每个员工每天一行
type AttendanceRecord struct {
	BaseModel
	ID                      int64            `gorm:"primaryKey;autoIncrement" json:"-"`
	EmployeeID              string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_attendance_employee_date" json:"employee_id"`
	Date                    string           `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_employee_date" json:"date"`
	CheckInAt               *time.Time       `json:"check_in_at,omitempty"`
	CheckOutAt              *time.Time       `json:"check_out_at,omitempty"`
	LocationLat             *float64         `json:"location_lat,omitempty"`
	LocationLng             *float64         `json:"location_lng,omitempty"`
	LocationLabel           string           `gorm:"type:varchar(255)" json:"location_label"`
	UsedRemoteWorkException bool             `gorm:"not null" json:"used_remote_work_exception"`
	Status                  AttendanceStatus `gorm:"type:varchar(16);not null" json:"status"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

func (r *AttendanceRecord) HasCheckedIn() bool {
	return r != nil && r.CheckInAt != nil
}

func (r *AttendanceRecord) HasCheckedOut() bool {
	return r != nil && r.CheckOutAt != nil
}

// AttemptAction 打卡动作
type AttemptAction string

const (
	AttemptActionCheckIn  AttemptAction = "check_in"
	AttemptActionCheckOut AttemptAction = "check_out"
)

// AttendanceAttempt 打卡尝试审计记录，由 worker 消费事件写入，成功与失败都会记录
type AttendanceAttempt struct {
	ID                      int64         `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	MessageID               string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"message_id"`
	EmployeeID              string        `gorm:"type:varchar(64);not null;index:idx_attempt_employee_date" json:"employee_id"`
	Date                    string        `gorm:"type:varchar(10);not null;index:idx_attempt_employee_date" json:"date"`
	Action                  AttemptAction `gorm:"type:varchar(16);not null" json:"action"`
	CanAttend               bool          `gorm:"not null" json:"can_attend"`
	Reason                  string        `gorm:"type:varchar(64)" json:"reason"`
	LocationError           string        `gorm:"type:varchar(32)" json:"location_error,omitempty"`
	ZoneID                  string        `gorm:"type:varchar(36)" json:"zone_id,omitempty"`
	DistanceMeters          *float64      `json:"distance_meters,omitempty"`
	UsedRemoteWorkException bool          `gorm:"not null" json:"used_remote_work_exception"`
	GrantMatch              string        `gorm:"type:varchar(16)" json:"grant_match,omitempty"`
	Outcome                 string        `gorm:"type:varchar(32)" json:"outcome"`
	OccurredAt              time.Time     `gorm:"not null" json:"occurred_at"`
	CreatedAt               time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (AttendanceAttempt) TableName() string {
	return "attendance_attempts"
}
