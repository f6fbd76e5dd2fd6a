package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"GeoAttend/internal/model"
)

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// ListActiveZones 按创建顺序返回，围栏判定时同距离取先出现的区域
func (r *ZoneRepository) ListActiveZones(ctx context.Context) ([]model.GeofenceZone, error) {
	var zones []model.GeofenceZone
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").Order("id ASC").
		Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("list active zones: %w", err)
	}
	return zones, nil
}

func (r *ZoneRepository) ListZones(ctx context.Context, includeInactive bool) ([]model.GeofenceZone, error) {
	var zones []model.GeofenceZone
	q := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return zones, nil
}

func (r *ZoneRepository) GetZone(ctx context.Context, id string) (*model.GeofenceZone, error) {
	var zone model.GeofenceZone
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&zone).Error; err != nil {
		return nil, notFound(err)
	}
	return &zone, nil
}

func (r *ZoneRepository) CreateZone(ctx context.Context, zone *model.GeofenceZone) error {
	if err := r.db.WithContext(ctx).Create(zone).Error; err != nil {
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

// UpdateZone 更新名称、中心点、半径和启用状态
func (r *ZoneRepository) UpdateZone(ctx context.Context, zone *model.GeofenceZone) error {
	res := r.db.WithContext(ctx).Model(&model.GeofenceZone{}).
		Where("id = ?", zone.ID).
		Updates(map[string]interface{}{
			"name":          zone.Name,
			"lat":           zone.Latitude,
			"lng":           zone.Longitude,
			"radius_meters": zone.RadiusMeters,
			"is_active":     zone.Active,
		})
	if res.Error != nil {
		return fmt.Errorf("update zone: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ZoneRepository) SetZoneActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.GeofenceZone{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("set zone active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
