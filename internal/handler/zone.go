package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/response"
)

// ListZones 管理端区域列表
// GET /v1/admin/zones
func ListZones(ctx context.Context, c *app.RequestContext) {
	var query dto.ZoneListQuery
	if err := c.BindAndValidate(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	includeInactive := query.IncludeInactive == nil || *query.IncludeInactive

	zones, err := zoneService().List(ctx, includeInactive)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, zones, map[string]interface{}{"count": len(zones)})
}

// CreateZone 新建办公区域
// POST /v1/admin/zones
func CreateZone(ctx context.Context, c *app.RequestContext) {
	adminID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	var req dto.ZoneRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	zone, err := zoneService().Create(ctx, adminID, toZoneInput(req))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Created(ctx, c, zone)
}

// UpdateZone 部分更新
// PUT /v1/admin/zones/:id
func UpdateZone(ctx context.Context, c *app.RequestContext) {
	var req dto.ZoneRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	zone, err := zoneService().Update(ctx, c.Param("id"), toZoneInput(req))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, zone)
}

// DeactivateZone 停用区域
// POST /v1/admin/zones/:id/deactivate
func DeactivateZone(ctx context.Context, c *app.RequestContext) {
	if err := zoneService().Deactivate(ctx, c.Param("id")); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

func toZoneInput(req dto.ZoneRequest) service.ZoneInput {
	return service.ZoneInput{
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		Active:       req.Active,
	}
}
