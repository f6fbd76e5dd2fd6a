package model

// AttendanceAttemptMessage 打卡尝试事件，worker 落库为 AttendanceAttempt
type AttendanceAttemptMessage struct {
	MessageID               string   `json:"message_id"` // 消息唯一ID，用于幂等性检查
	EmployeeID              string   `json:"employee_id"`
	Date                    string   `json:"date"`
	Action                  string   `json:"action"`
	CanAttend               bool     `json:"can_attend"`
	Reason                  string   `json:"reason"`
	LocationError           string   `json:"location_error,omitempty"`
	ZoneID                  string   `json:"zone_id,omitempty"`
	DistanceMeters          *float64 `json:"distance_meters,omitempty"`
	UsedRemoteWorkException bool     `json:"used_remote_work_exception"`
	GrantMatch              string   `json:"grant_match,omitempty"`
	Outcome                 string   `json:"outcome"`     // recorded, rejected, failed
	OccurredAt              string   `json:"occurred_at"` // RFC3339
}
