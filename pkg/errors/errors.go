package errors

import (
	stderrors "errors"
	"fmt"
)

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// Is 仅比较错误码，允许同一错误码携带不同的提示信息
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	if !ok {
		return false
	}
	return d.Code == t.Code
}

// WithMessage 保留错误码，替换提示信息
func (d Definition) WithMessage(message string) Definition {
	return Definition{Code: d.Code, Message: message}
}

// Wrap 将底层错误挂到业务错误下，errors.Is / errors.As 都能命中 def
func Wrap(def Definition, cause error) error {
	if cause == nil {
		return def
	}
	return fmt.Errorf("%w: %w", def, cause)
}

// As 从错误链中取出 Definition
func As(err error) (Definition, bool) {
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return Definition{}, false
}

// 定位相关错误。
var (
	LocationPermissionDenied    = Definition{Code: "LOCATION_PERMISSION_DENIED", Message: "Location permission denied"}
	LocationPositionUnavailable = Definition{Code: "LOCATION_POSITION_UNAVAILABLE", Message: "Location position unavailable"}
	LocationTimeout             = Definition{Code: "LOCATION_TIMEOUT", Message: "Location request timed out"}
	LocationUnsupported         = Definition{Code: "LOCATION_UNSUPPORTED", Message: "Location not supported on this device"}
)

// 考勤模块错误。
var (
	OutsideZoneNoGrant = Definition{Code: "OUTSIDE_ZONE_NO_GRANT", Message: "Outside office zone without an approved remote-work request"}
	NotEligible        = Definition{Code: "NOT_ELIGIBLE", Message: "Not eligible to record attendance"}
	NoCheckInYet       = Definition{Code: "NO_CHECK_IN_YET", Message: "No check-in recorded for today"}
)

// 围栏与远程办公模块错误。
var (
	ZoneNotFound            = Definition{Code: "ZONE_NOT_FOUND", Message: "Zone not found"}
	GrantNotFound           = Definition{Code: "GRANT_NOT_FOUND", Message: "Remote-work request not found"}
	GrantNotPending         = Definition{Code: "GRANT_NOT_PENDING", Message: "Remote-work request already decided"}
	RejectionReasonRequired = Definition{Code: "REJECTION_REASON_REQUIRED", Message: "Rejection reason required"}
	InvalidDateRange        = Definition{Code: "INVALID_DATE_RANGE", Message: "End date must not be before start date"}
)

// 通用错误。
var (
	StoreError      = Definition{Code: "STORE_ERROR", Message: "Storage unavailable"}
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthorized    = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	Forbidden       = Definition{Code: "FORBIDDEN", Message: "Forbidden"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	InternalError   = Definition{Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	LocationPermissionDenied.Code:    LocationPermissionDenied,
	LocationPositionUnavailable.Code: LocationPositionUnavailable,
	LocationTimeout.Code:             LocationTimeout,
	LocationUnsupported.Code:         LocationUnsupported,
	OutsideZoneNoGrant.Code:          OutsideZoneNoGrant,
	NotEligible.Code:                 NotEligible,
	NoCheckInYet.Code:                NoCheckInYet,
	ZoneNotFound.Code:                ZoneNotFound,
	GrantNotFound.Code:               GrantNotFound,
	GrantNotPending.Code:             GrantNotPending,
	RejectionReasonRequired.Code:     RejectionReasonRequired,
	InvalidDateRange.Code:            InvalidDateRange,
	StoreError.Code:                  StoreError,
	InvalidRequest.Code:              InvalidRequest,
	Unauthorized.Code:                Unauthorized,
	Forbidden.Code:                   Forbidden,
	TooManyRequests.Code:             TooManyRequests,
	InternalError.Code:               InternalError,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
