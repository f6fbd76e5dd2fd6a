package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"GeoAttend/internal/model"
)

// zoneFile 种子文件格式:
//
//	zones:
//	  - name: Head Office
//	    latitude: -6.2
//	    longitude: 106.8166
//	    radius_meters: 150
type zoneFile struct {
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters float64 `yaml:"radius_meters"`
	Active       *bool   `yaml:"active"`
}

func loadZones(path string, defaultRadius float64) ([]model.GeofenceZone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}
	return parseZones(raw, defaultRadius)
}

// parseZones 未给 id 时按名称生成稳定的 uuid，重复执行不会产生重复区域
func parseZones(raw []byte, defaultRadius float64) ([]model.GeofenceZone, error) {
	var file zoneFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse zones file: %w", err)
	}

	var errs []error
	zones := make([]model.GeofenceZone, 0, len(file.Zones))
	for i, e := range file.Zones {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("zone #%d: name is required", i+1))
			continue
		}

		zone := model.GeofenceZone{
			ID:           e.ID,
			Name:         name,
			Latitude:     e.Latitude,
			Longitude:    e.Longitude,
			RadiusMeters: e.RadiusMeters,
			Active:       e.Active == nil || *e.Active,
			CreatedBy:    "seed",
		}
		if zone.ID == "" {
			zone.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("geoattend:zone:"+name)).String()
		}
		if zone.RadiusMeters == 0 {
			zone.RadiusMeters = defaultRadius
		}
		if err := zone.Center().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("zone %q: %w", name, err))
			continue
		}
		if zone.RadiusMeters < 0 {
			errs = append(errs, fmt.Errorf("zone %q: radius_meters must be positive", name))
			continue
		}
		zones = append(zones, zone)
	}
	return zones, errors.Join(errs...)
}

// upsertZones 按 id 覆盖名称、中心点、半径和启用状态
func upsertZones(ctx context.Context, db *gorm.DB, zones []model.GeofenceZone) error {
	if len(zones) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "lat", "lng", "radius_meters", "is_active", "updated_at"}),
	}).Create(&zones).Error
}
