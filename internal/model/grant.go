package model

import "time"

// GrantStatus 远程办公申请状态
type GrantStatus string

const (
	GrantStatusPending  GrantStatus = "pending"
	GrantStatusApproved GrantStatus = "approved"
	GrantStatusRejected GrantStatus = "rejected"
)

// RemoteWorkGrant 远程办公（WFH / 出差）申请，日期为 YYYY-MM-DD，首尾均包含
type RemoteWorkGrant struct {
	BaseModel
	ID              int64       `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	EmployeeID      string      `gorm:"type:varchar(64);not null;index:idx_remote_work_employee_start" json:"employee_id"`
	StartDate       string      `gorm:"type:varchar(10);not null;index:idx_remote_work_employee_start" json:"start_date"`
	EndDate         string      `gorm:"type:varchar(10);not null" json:"end_date"`
	Status          GrantStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Destination     string      `gorm:"type:varchar(255)" json:"destination,omitempty"`
	Purpose         string      `gorm:"type:text" json:"purpose,omitempty"`
	DurationDays    int         `gorm:"not null" json:"duration_days"`
	ApprovedBy      string      `gorm:"type:varchar(64)" json:"approved_by,omitempty"`
	ApprovedDate    *time.Time  `json:"approved_date,omitempty"`
	RejectionReason string      `gorm:"type:text" json:"rejection_reason,omitempty"`
}

// TableName 指定表名
func (RemoteWorkGrant) TableName() string {
	return "remote_work_grants"
}

// Covers date 是否落在 [StartDate, EndDate] 内，YYYY-MM-DD 可直接按字典序比较
func (g RemoteWorkGrant) Covers(date string) bool {
	return g.StartDate <= date && date <= g.EndDate
}

func (g RemoteWorkGrant) IsApproved() bool {
	return g.Status == GrantStatusApproved
}
