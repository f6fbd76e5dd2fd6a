package model

import (
	"time"
)

// BaseModel 时间戳由 gorm 维护，不依赖数据库默认值，sqlite 与 postgres 通用
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
