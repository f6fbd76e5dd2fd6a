package location

import (
	"context"
	"errors"
	"fmt"

	apperrors "GeoAttend/pkg/errors"
)

// Kind 定位失败的类别
type Kind string

const (
	PermissionDenied    Kind = "permission_denied"
	PositionUnavailable Kind = "position_unavailable"
	Timeout             Kind = "timeout"
	Unsupported         Kind = "unsupported"
)

// ErrUnsupported Provider 无定位能力时返回
var ErrUnsupported = errors.New("location: positioning not supported")

var remediations = map[Kind]string{
	PermissionDenied:    "Allow location access for this app in your browser or device settings, then try again.",
	PositionUnavailable: "Move to an open area and make sure GPS or Wi-Fi is on, then try again.",
	Timeout:             "Getting your location took too long. Check your connection and try again.",
	Unsupported:         "This device cannot share its location. Use a device with location services or submit a remote-work request.",
}

// Remediation 面向用户的处理建议
func (k Kind) Remediation() string {
	if msg, ok := remediations[k]; ok {
		return msg
	}
	return remediations[PositionUnavailable]
}

// Definition 对应的业务错误码
func (k Kind) Definition() apperrors.Definition {
	switch k {
	case PermissionDenied:
		return apperrors.LocationPermissionDenied
	case Timeout:
		return apperrors.LocationTimeout
	case Unsupported:
		return apperrors.LocationUnsupported
	default:
		return apperrors.LocationPositionUnavailable
	}
}

// Error 定位失败
type Error struct {
	Err     error
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("location %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, apperrors.LocationTimeout) 之类的判断成立
func (e *Error) Is(target error) bool {
	def, ok := target.(apperrors.Definition)
	return ok && def.Code == e.Kind.Definition().Code
}

func (e *Error) Remediation() string {
	return e.Kind.Remediation()
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// AsError 从错误链中取出 *Error
func AsError(err error) (*Error, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// classify 将 Provider 返回的任意错误归类
func classify(err error) *Error {
	if le, ok := AsError(err); ok {
		return le
	}
	switch {
	case errors.Is(err, ErrUnsupported):
		return newError(Unsupported, "positioning not supported", err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(Timeout, "position request timed out", err)
	default:
		return newError(PositionUnavailable, "position unavailable", err)
	}
}
