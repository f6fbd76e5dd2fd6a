package service

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"GeoAttend/internal/geofence"
	"GeoAttend/internal/model"
	"GeoAttend/internal/repository"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
)

// ZoneAdminStore 围栏管理
type ZoneAdminStore interface {
	ListZones(ctx context.Context, includeInactive bool) ([]model.GeofenceZone, error)
	GetZone(ctx context.Context, id string) (*model.GeofenceZone, error)
	CreateZone(ctx context.Context, zone *model.GeofenceZone) error
	UpdateZone(ctx context.Context, zone *model.GeofenceZone) error
	SetZoneActive(ctx context.Context, id string, active bool) error
}

// ZoneInvalidator 围栏变更后清理缓存
type ZoneInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ZoneInput 更新时 nil 字段保持原值
type ZoneInput struct {
	Name         *string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters *float64
	Active       *bool
}

type ZoneService struct {
	store         ZoneAdminStore
	cache         ZoneInvalidator
	defaultRadius float64
}

func NewZoneService(store ZoneAdminStore, cache ZoneInvalidator, defaultRadius float64) *ZoneService {
	if defaultRadius <= 0 {
		defaultRadius = geofence.DefaultRadiusMeters
	}
	return &ZoneService{store: store, cache: cache, defaultRadius: defaultRadius}
}

func (s *ZoneService) List(ctx context.Context, includeInactive bool) ([]model.GeofenceZone, error) {
	zones, err := s.store.ListZones(ctx, includeInactive)
	if err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}
	return zones, nil
}

// Create 半径缺省取配置的默认值，新建即启用
func (s *ZoneService) Create(ctx context.Context, adminID string, in ZoneInput) (*model.GeofenceZone, error) {
	if in.Name == nil || in.Latitude == nil || in.Longitude == nil {
		return nil, errors.InvalidRequest.WithMessage("name, latitude and longitude are required")
	}

	zone := &model.GeofenceZone{
		ID:           uuid.NewString(),
		RadiusMeters: s.defaultRadius,
		Active:       true,
		CreatedBy:    adminID,
	}
	apply(zone, in)
	if err := validateZone(zone); err != nil {
		return nil, err
	}

	if err := s.store.CreateZone(ctx, zone); err != nil {
		return nil, errors.Wrap(errors.StoreError, err)
	}
	s.invalidate(ctx)

	logger.Logger.Info("Geofence zone created",
		zap.String("zone_id", zone.ID),
		zap.String("name", zone.Name),
		zap.Float64("radius_meters", zone.RadiusMeters),
		zap.String("created_by", adminID),
	)
	return zone, nil
}

func (s *ZoneService) Update(ctx context.Context, id string, in ZoneInput) (*model.GeofenceZone, error) {
	zone, err := s.store.GetZone(ctx, id)
	if err != nil {
		return nil, zoneError(err)
	}

	apply(zone, in)
	if err := validateZone(zone); err != nil {
		return nil, err
	}

	if err := s.store.UpdateZone(ctx, zone); err != nil {
		return nil, zoneError(err)
	}
	s.invalidate(ctx)

	logger.Logger.Info("Geofence zone updated", zap.String("zone_id", id))
	return zone, nil
}

// Deactivate 停用后不再参与判定，记录保留
func (s *ZoneService) Deactivate(ctx context.Context, id string) error {
	if err := s.store.SetZoneActive(ctx, id, false); err != nil {
		return zoneError(err)
	}
	s.invalidate(ctx)

	logger.Logger.Info("Geofence zone deactivated", zap.String("zone_id", id))
	return nil
}

func (s *ZoneService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Logger.Warn("Failed to invalidate zone cache", zap.Error(err))
	}
}

func apply(zone *model.GeofenceZone, in ZoneInput) {
	if in.Name != nil {
		zone.Name = strings.TrimSpace(*in.Name)
	}
	if in.Latitude != nil {
		zone.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		zone.Longitude = *in.Longitude
	}
	if in.RadiusMeters != nil {
		zone.RadiusMeters = *in.RadiusMeters
	}
	if in.Active != nil {
		zone.Active = *in.Active
	}
}

func validateZone(zone *model.GeofenceZone) error {
	if zone.Name == "" {
		return errors.InvalidRequest.WithMessage("zone name is required")
	}
	if err := zone.Center().Validate(); err != nil {
		return errors.Wrap(errors.InvalidRequest.WithMessage("zone center is out of range"), err)
	}
	if !(zone.RadiusMeters > 0) {
		return errors.InvalidRequest.WithMessage("radius_meters must be positive")
	}
	return nil
}

func zoneError(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.ZoneNotFound
	}
	return errors.Wrap(errors.StoreError, err)
}
