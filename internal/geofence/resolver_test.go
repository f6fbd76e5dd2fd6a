package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GeoAttend/internal/model"
)

// 纬度方向 1 米约等于 1/111195 度
const metersPerDegree = 111195.0

func zone(id string, lat, lng, radius float64, active bool) model.GeofenceZone {
	return model.GeofenceZone{ID: id, Name: "Zone " + id, Latitude: lat, Longitude: lng, RadiusMeters: radius, Active: active}
}

func north(c model.Coordinate, meters float64) model.Coordinate {
	return model.Coordinate{Latitude: c.Latitude + meters/metersPerDegree, Longitude: c.Longitude}
}

var hq = model.Coordinate{Latitude: -6.2, Longitude: 106.8}

func TestResolve_InsideZone(t *testing.T) {
	zones := []model.GeofenceZone{zone("hq", hq.Latitude, hq.Longitude, 100, true)}

	res := Resolve(north(hq, 50), zones)
	assert.True(t, res.WithinAny)
	require.NotNil(t, res.Nearest)
	assert.Equal(t, "hq", res.Nearest.Zone.ID)
	assert.InDelta(t, 50, res.Nearest.DistanceMeters, 0.5)
}

func TestResolve_OutsideZone(t *testing.T) {
	zones := []model.GeofenceZone{zone("hq", hq.Latitude, hq.Longitude, 100, true)}

	res := Resolve(north(hq, 250), zones)
	assert.False(t, res.WithinAny)
	require.NotNil(t, res.Nearest)
	assert.InDelta(t, 250, res.Nearest.DistanceMeters, 1)
}

func TestResolve_InactiveZonesIgnored(t *testing.T) {
	zones := []model.GeofenceZone{
		zone("closed", hq.Latitude, hq.Longitude, 500, false),
		zone("far", 0, 0, 100, true),
	}

	res := Resolve(hq, zones)
	assert.False(t, res.WithinAny)
	require.NotNil(t, res.Nearest)
	assert.Equal(t, "far", res.Nearest.Zone.ID)
}

func TestResolve_NearestAcrossZones(t *testing.T) {
	a := north(hq, 300)
	b := north(hq, 120)
	zones := []model.GeofenceZone{
		zone("a", a.Latitude, a.Longitude, 100, true),
		zone("b", b.Latitude, b.Longitude, 150, true),
	}

	res := Resolve(hq, zones)
	assert.True(t, res.WithinAny)
	assert.Equal(t, "b", res.Nearest.Zone.ID)
}

func TestResolve_WithinAnyEvenIfNearestIsOtherZone(t *testing.T) {
	// 点在 big 的大半径内，但离 small 的中心更近
	big := north(hq, 400)
	small := north(hq, -150)
	zones := []model.GeofenceZone{
		zone("big", big.Latitude, big.Longitude, 1000, true),
		zone("small", small.Latitude, small.Longitude, 50, true),
	}

	res := Resolve(hq, zones)
	assert.True(t, res.WithinAny)
	assert.Equal(t, "small", res.Nearest.Zone.ID)
}

func TestResolve_TieKeepsFirst(t *testing.T) {
	zones := []model.GeofenceZone{
		zone("first", hq.Latitude, hq.Longitude, 100, true),
		zone("second", hq.Latitude, hq.Longitude, 100, true),
	}

	res := Resolve(hq, zones)
	assert.Equal(t, "first", res.Nearest.Zone.ID)
}

func TestResolve_NoZones(t *testing.T) {
	res := Resolve(hq, nil)
	assert.False(t, res.WithinAny)
	assert.Nil(t, res.Nearest)

	res = Resolve(hq, []model.GeofenceZone{zone("off", hq.Latitude, hq.Longitude, 100, false)})
	assert.False(t, res.WithinAny)
	assert.Nil(t, res.Nearest)
}

func TestContains_Boundary(t *testing.T) {
	z := zone("hq", hq.Latitude, hq.Longitude, 100, true)
	assert.True(t, Contains(z, north(hq, 99.5)))
	assert.False(t, Contains(z, north(hq, 100.5)))
}
