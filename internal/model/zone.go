package model

// GeofenceZone 办公区域围栏
type GeofenceZone struct {
	BaseModel
	ID           string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string  `gorm:"type:varchar(128);not null" json:"name"`
	Latitude     float64 `gorm:"column:lat;not null" json:"latitude"`
	Longitude    float64 `gorm:"column:lng;not null" json:"longitude"`
	RadiusMeters float64 `gorm:"not null" json:"radius_meters"`
	// 不设 default，否则 gorm 创建时会把 false 当作零值忽略
	Active    bool   `gorm:"column:is_active;not null;index" json:"is_active"`
	CreatedBy string `gorm:"type:varchar(64)" json:"created_by,omitempty"`
}

// TableName 指定表名
func (GeofenceZone) TableName() string {
	return "geofence_zones"
}

func (z GeofenceZone) Center() Coordinate {
	return Coordinate{Latitude: z.Latitude, Longitude: z.Longitude}
}
