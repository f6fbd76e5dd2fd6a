package location

import (
	"context"
	"strings"
	"time"

	"GeoAttend/internal/model"
)

// HighAccuracyThresholdMeters 高精度策略可接受的最大误差半径
const HighAccuracyThresholdMeters = 100

// Report 客户端设备上报的定位结果
type Report struct {
	Latitude       *float64
	Longitude      *float64
	AccuracyMeters float64
	CapturedAt     time.Time
	Permission     PermissionState
	// 设备定位 API 的错误码：1/2/3 或 permission_denied/position_unavailable/timeout/unsupported
	ErrorCode string
}

// ReportedProvider 把客户端上报的结果当作 Provider 使用，服务端据此重新判定
type ReportedProvider struct {
	report Report
	now    func() time.Time
}

func NewReportedProvider(r Report, now func() time.Time) *ReportedProvider {
	if now == nil {
		now = time.Now
	}
	if r.Permission == "" {
		r.Permission = StateUnknown
	}
	return &ReportedProvider{report: r, now: now}
}

func (p *ReportedProvider) PermissionState(ctx context.Context) PermissionState {
	return p.report.Permission
}

func (p *ReportedProvider) CurrentPosition(ctx context.Context, opts Options) (model.LocationSample, error) {
	if err := ctx.Err(); err != nil {
		return model.LocationSample{}, newError(Timeout, "position request timed out", err)
	}

	r := p.report
	if r.ErrorCode != "" {
		kind := ParseErrorCode(r.ErrorCode)
		if kind == Unsupported {
			return model.LocationSample{}, newError(kind, "device reported no positioning capability", ErrUnsupported)
		}
		return model.LocationSample{}, newError(kind, "device reported error "+r.ErrorCode, nil)
	}

	if r.Latitude == nil || r.Longitude == nil {
		return model.LocationSample{}, newError(PositionUnavailable, "no coordinates reported", nil)
	}

	sample := model.LocationSample{
		Coordinate:     model.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude},
		CapturedAt:     r.CapturedAt,
		AccuracyMeters: r.AccuracyMeters,
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = p.now()
	}

	if opts.MaxCacheAge > 0 && p.now().Sub(sample.CapturedAt) > opts.MaxCacheAge {
		return model.LocationSample{}, newError(Timeout, "reported fix is older than the accepted age", nil)
	}
	if opts.HighAccuracy && r.AccuracyMeters > HighAccuracyThresholdMeters {
		return model.LocationSample{}, newError(PositionUnavailable, "reported fix is not precise enough", nil)
	}

	return sample, nil
}

// ParseErrorCode 未识别的错误码按 position_unavailable 处理
func ParseErrorCode(code string) Kind {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "1", string(PermissionDenied):
		return PermissionDenied
	case "3", string(Timeout):
		return Timeout
	case string(Unsupported):
		return Unsupported
	default:
		return PositionUnavailable
	}
}
