// Package geo 提供地表球面距离计算。
package geo

import "math"

// EarthRadiusMeters 平均地球半径
const EarthRadiusMeters = 6371e3

// Point 经纬度，单位为度
type Point struct {
	Lat float64
	Lng float64
}

// Distance 使用 haversine 公式计算两点间的大圆距离（米）
func Distance(a, b Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// 浮点误差可能使 h 略大于 1
	h = math.Min(1, h)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
