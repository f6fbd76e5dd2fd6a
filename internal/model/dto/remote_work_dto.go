package dto

// ========== RemoteWork 相关 DTO ==========

// CreateRemoteWorkRequest 提交远程办公申请
type CreateRemoteWorkRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Destination string `json:"destination"`
	Purpose     string `json:"purpose"`
}

// RemoteWorkListQuery 列表查询参数，status 仅管理端有效
type RemoteWorkListQuery struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
}

// RejectRemoteWorkRequest 驳回必须给出原因
type RejectRemoteWorkRequest struct {
	Reason string `json:"reason"`
}
