package location

import (
	"context"
	"time"

	"GeoAttend/internal/model"
)

// PermissionState 设备定位权限
type PermissionState string

const (
	StateGranted PermissionState = "granted"
	StateDenied  PermissionState = "denied"
	StatePrompt  PermissionState = "prompt"
	StateUnknown PermissionState = "unknown"
)

// ParsePermission 未识别的取值视为 unknown
func ParsePermission(s string) PermissionState {
	switch PermissionState(s) {
	case StateGranted, StateDenied, StatePrompt:
		return PermissionState(s)
	default:
		return StateUnknown
	}
}

// Options 一次定位请求的参数
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// 可接受的缓存定位最大年龄
	MaxCacheAge time.Duration
}

// DefaultStrategies 依次放宽精度、超时和缓存年龄
var DefaultStrategies = []Options{
	{HighAccuracy: true, Timeout: 8 * time.Second, MaxCacheAge: 30 * time.Second},
	{HighAccuracy: false, Timeout: 15 * time.Second, MaxCacheAge: 60 * time.Second},
	{HighAccuracy: false, Timeout: 30 * time.Second, MaxCacheAge: 300 * time.Second},
}

// Provider 设备定位能力
type Provider interface {
	CurrentPosition(ctx context.Context, opts Options) (model.LocationSample, error)
	PermissionState(ctx context.Context) PermissionState
}
