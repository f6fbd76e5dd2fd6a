package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// StatusOf 根据错误链中的业务错误码映射 HTTP 状态码
func StatusOf(err error) int {
	def, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case errors.TooManyRequests.Code:
		return http.StatusTooManyRequests // 429
	case errors.InvalidRequest.Code, errors.InvalidDateRange.Code,
		errors.RejectionReasonRequired.Code:
		return http.StatusBadRequest // 400
	case errors.Unauthorized.Code:
		return http.StatusUnauthorized // 401
	case errors.Forbidden.Code, errors.NotEligible.Code, errors.OutsideZoneNoGrant.Code:
		return http.StatusForbidden // 403
	case errors.ZoneNotFound.Code, errors.GrantNotFound.Code:
		return http.StatusNotFound // 404
	case errors.NoCheckInYet.Code, errors.GrantNotPending.Code:
		return http.StatusConflict // 409
	case errors.LocationPermissionDenied.Code, errors.LocationPositionUnavailable.Code,
		errors.LocationTimeout.Code, errors.LocationUnsupported.Code:
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}

func toDetail(ctx context.Context, err error, details map[string]interface{}) (int, ErrorDetail) {
	status := StatusOf(err)

	def, ok := errors.As(err)
	if !ok {
		logger.Logger.Error("Unhandled error", zap.Error(err))
		return status, ErrorDetail{Code: "INTERNAL_ERROR", Message: "Internal server error", Details: details}
	}

	// 存储错误不对外暴露底层信息
	if def.Code == errors.StoreError.Code {
		logger.Logger.Error("Store error", zap.Error(err))
	}

	return status, ErrorDetail{Code: def.Code, Message: def.Message, Details: details}
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	status, detail := toDetail(ctx, err, nil)
	c.JSON(status, ErrorResponse{Error: detail})
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	status, detail := toDetail(ctx, err, details)
	c.JSON(status, ErrorResponse{Error: detail})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
