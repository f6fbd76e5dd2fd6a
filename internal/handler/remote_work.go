package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/response"
)

// CreateRemoteWork 提交远程办公申请
// POST /v1/remote-work
func CreateRemoteWork(ctx context.Context, c *app.RequestContext) {
	employeeID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	var req dto.CreateRemoteWorkRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	grant, err := remoteWorkService().Submit(ctx, employeeID, service.RemoteWorkRequest{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Destination: req.Destination,
		Purpose:     req.Purpose,
	})
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Created(ctx, c, grant)
}

// ListMyRemoteWork 本人的申请
// GET /v1/remote-work
func ListMyRemoteWork(ctx context.Context, c *app.RequestContext) {
	employeeID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}

	var query dto.RemoteWorkListQuery
	if err := c.BindAndValidate(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	grants, err := remoteWorkService().ListMine(ctx, employeeID, query.Limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, grants, map[string]interface{}{"count": len(grants)})
}

// ListRemoteWork 管理端按状态筛选
// GET /v1/admin/remote-work
func ListRemoteWork(ctx context.Context, c *app.RequestContext) {
	var query dto.RemoteWorkListQuery
	if err := c.BindAndValidate(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	grants, err := remoteWorkService().List(ctx, query.Status, query.Limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, grants, map[string]interface{}{"count": len(grants)})
}

// ApproveRemoteWork 批准申请
// POST /v1/admin/remote-work/:id/approve
func ApproveRemoteWork(ctx context.Context, c *app.RequestContext) {
	adminID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}
	id, ok := grantID(ctx, c)
	if !ok {
		return
	}

	grant, err := remoteWorkService().Approve(ctx, adminID, id)
	if err != nil {
		decisionError(ctx, c, err, grant)
		return
	}

	response.Success(ctx, c, grant)
}

// RejectRemoteWork 驳回申请
// POST /v1/admin/remote-work/:id/reject
func RejectRemoteWork(ctx context.Context, c *app.RequestContext) {
	adminID, ok := currentEmployee(ctx, c)
	if !ok {
		return
	}
	id, ok := grantID(ctx, c)
	if !ok {
		return
	}

	var req dto.RejectRemoteWorkRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	grant, err := remoteWorkService().Reject(ctx, adminID, id, req.Reason)
	if err != nil {
		decisionError(ctx, c, err, grant)
		return
	}

	response.Success(ctx, c, grant)
}

func grantID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// decisionError 已被处理过的申请附带当前状态
func decisionError(ctx context.Context, c *app.RequestContext, err error, grant *model.RemoteWorkGrant) {
	if grant != nil {
		response.ErrorWithDetails(ctx, c, err, map[string]interface{}{
			"current_status": string(grant.Status),
		})
		return
	}
	response.Error(ctx, c, err)
}
