package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// OTelMetrics 考勤相关指标
type OTelMetrics struct {
	VerdictTotal         metric.Int64Counter
	LocationFailureTotal metric.Int64Counter
	GrantMatchTotal      metric.Int64Counter
	RecordWriteTotal     metric.Int64Counter
	AcquireDuration      metric.Float64Histogram
	AttemptEventTotal    metric.Int64Counter
}

var (
	metrics  *OTelMetrics
	initOnce sync.Once
)

// InitMetrics 在全局 MeterProvider 上创建指标，SetMeterProvider 之前创建的指标也会被转发
func InitMetrics() error {
	var initErr error
	initOnce.Do(func() {
		metrics, initErr = newMetrics(otel.Meter("geoattend"))
		if initErr != nil {
			metrics, _ = newMetrics(noop.NewMeterProvider().Meter("geoattend"))
		}
	})
	return initErr
}

// GetMetrics 获取全局指标实例，未初始化时按默认配置初始化
func GetMetrics() *OTelMetrics {
	_ = InitMetrics()
	return metrics
}

func newMetrics(meter metric.Meter) (*OTelMetrics, error) {
	var err error
	m := &OTelMetrics{}

	m.VerdictTotal, err = meter.Int64Counter(
		"attendance_verdict_total",
		metric.WithDescription("Eligibility verdicts by reason"),
		metric.WithUnit("{verdict}"),
	)
	if err != nil {
		return nil, err
	}

	m.LocationFailureTotal, err = meter.Int64Counter(
		"attendance_location_failure_total",
		metric.WithDescription("Location acquisition failures by kind"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	m.GrantMatchTotal, err = meter.Int64Counter(
		"attendance_remote_work_match_total",
		metric.WithDescription("Remote-work grant lookups by matched rule"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	m.RecordWriteTotal, err = meter.Int64Counter(
		"attendance_record_write_total",
		metric.WithDescription("Attendance record writes by action and result"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, err
	}

	m.AcquireDuration, err = meter.Float64Histogram(
		"attendance_location_acquire_duration_seconds",
		metric.WithDescription("Time spent acquiring a location across all strategies"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	m.AttemptEventTotal, err = meter.Int64Counter(
		"attendance_attempt_event_total",
		metric.WithDescription("Attempt audit events by stage and result"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordVerdict 记录一次资格判定
func (m *OTelMetrics) RecordVerdict(ctx context.Context, reason string, canAttend bool) {
	m.VerdictTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.Bool("can_attend", canAttend),
	))
}

// RecordLocationFailure 记录定位失败
func (m *OTelMetrics) RecordLocationFailure(ctx context.Context, kind string) {
	m.LocationFailureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func (m *OTelMetrics) RecordGrantMatch(ctx context.Context, match string, degraded bool) {
	m.GrantMatchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("match", match),
		attribute.Bool("location_degraded", degraded),
	))
}

// RecordWrite 记录签到/签退写入，result 为 ok / rejected / error
func (m *OTelMetrics) RecordWrite(ctx context.Context, action, result string) {
	m.RecordWriteTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("result", result),
	))
}

func (m *OTelMetrics) RecordAcquireDuration(ctx context.Context, seconds float64, outcome string) {
	m.AcquireDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordAttemptEvent stage 为 published / consumed
func (m *OTelMetrics) RecordAttemptEvent(ctx context.Context, stage, result string) {
	m.AttemptEventTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("result", result),
	))
}
