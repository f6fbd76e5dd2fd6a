package model

import (
	"fmt"
	"math"
	"time"

	"GeoAttend/pkg/geo"
)

// Coordinate WGS84 经纬度
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

func (c Coordinate) Point() geo.Point {
	return geo.Point{Lat: c.Latitude, Lng: c.Longitude}
}

// DistanceTo 到另一点的大圆距离（米）
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return geo.Distance(c.Point(), other.Point())
}

// LocationSample 一次定位结果，不落库
type LocationSample struct {
	Coordinate
	CapturedAt     time.Time `json:"captured_at"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
}
