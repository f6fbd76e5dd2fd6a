package dto

// ========== Zone 相关 DTO ==========

// ZoneRequest 创建时 name / latitude / longitude 必填，更新时缺省字段保持原值
type ZoneRequest struct {
	Name         *string  `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters *float64 `json:"radius_meters"`
	Active       *bool    `json:"is_active"`
}

// ZoneListQuery 管理端默认也返回未启用的区域
type ZoneListQuery struct {
	IncludeInactive *bool `query:"include_inactive"`
}
