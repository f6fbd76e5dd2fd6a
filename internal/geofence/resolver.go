// Package geofence 判断坐标是否落在办公区域内，并给出最近的区域。
package geofence

import (
	"GeoAttend/internal/model"
)

// DefaultRadiusMeters 新建区域未指定半径时使用
const DefaultRadiusMeters = 100.0

// Match 最近的区域及距离
type Match struct {
	Zone           model.GeofenceZone `json:"zone"`
	DistanceMeters float64            `json:"distance_meters"`
}

// Result 一次围栏判定结果
type Result struct {
	Nearest   *Match `json:"nearest,omitempty"`
	WithinAny bool   `json:"within_any"`
}

// Contains 边界上的点视为在区域内
func Contains(zone model.GeofenceZone, point model.Coordinate) bool {
	return point.DistanceTo(zone.Center()) <= zone.RadiusMeters
}

// Resolve 跳过未启用的区域；距离相同时保留先出现的区域
func Resolve(point model.Coordinate, zones []model.GeofenceZone) Result {
	var res Result

	for _, zone := range zones {
		if !zone.Active {
			continue
		}

		d := point.DistanceTo(zone.Center())
		if d <= zone.RadiusMeters {
			res.WithinAny = true
		}
		if res.Nearest == nil || d < res.Nearest.DistanceMeters {
			res.Nearest = &Match{Zone: zone, DistanceMeters: d}
		}
	}

	return res
}
