package database

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey      = "otel:span"
	startTimeKey = "otel:start_time"
)

var (
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
	metricsOnce     sync.Once

	sensitivePattern = regexp.MustCompile(`(?i)(password|token|secret)\s*=\s*'[^']*'`)
)

// initDatabaseMetrics 在全局 meter 上创建数据库指标，只执行一次
func initDatabaseMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("geoattend.gorm")

		dbQueriesTotal, _ = meter.Int64Counter(
			"db.queries.total",
			metric.WithDescription("Total number of database queries"),
			metric.WithUnit("{query}"),
		)
		dbQueryDuration, _ = meter.Float64Histogram(
			"db.query.duration",
			metric.WithDescription("Database query duration"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
		)
	})
}

// OTELPlugin GORM OpenTelemetry 插件
type OTELPlugin struct {
	tracer trace.Tracer
	config PluginConfig
}

// PluginConfig 插件配置
type PluginConfig struct {
	ServiceName     string
	TracerProvider  trace.TracerProvider
	EnableSQLParams bool
	EnableMetrics   bool
	MaxSQLLength    int
}

// DefaultPluginConfig 默认不记录 SQL 参数
func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		ServiceName:     "geoattend",
		EnableSQLParams: false,
		EnableMetrics:   true,
		MaxSQLLength:    500,
	}
}

func NewOTELPlugin(config PluginConfig) *OTELPlugin {
	if config.ServiceName == "" {
		config.ServiceName = "geoattend"
	}
	if config.MaxSQLLength <= 0 {
		config.MaxSQLLength = 500
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if config.EnableMetrics {
		initDatabaseMetrics()
	}

	return &OTELPlugin{
		tracer: tp.Tracer(config.ServiceName + ".gorm"),
		config: config,
	}
}

// Name 实现 gorm.Plugin 接口
func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 注册回调
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	register := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"insert", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, r := range register {
		if err := r.before("otel:before_"+r.op, p.beforeCallback("db."+r.op)); err != nil {
			return err
		}
		if err := r.after("otel:after_"+r.op, p.afterCallback("db."+r.op)); err != nil {
			return err
		}
	}
	return nil
}

func (p *OTELPlugin) beforeCallback(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		ctx, span := p.tracer.Start(ctx, operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemKey.String(db.Dialector.Name()),
				attribute.String("service.name", p.config.ServiceName),
			),
		)

		db.InstanceSet(startTimeKey, time.Now())
		db.InstanceSet(spanKey, span)
		db.Statement.Context = ctx
	}
}

func (p *OTELPlugin) afterCallback(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(spanKey)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		// SQL 在 gorm 回调执行后才生成
		span.SetAttributes(p.statementAttributes(db)...)
		p.setSpanStatus(span, db)

		if !p.config.EnableMetrics {
			return
		}
		if st, ok := db.InstanceGet(startTimeKey); ok {
			if start, ok := st.(time.Time); ok {
				p.recordMetrics(db.Statement.Context, operation, db.Error, time.Since(start).Seconds())
			}
		}
	}
}

func (p *OTELPlugin) statementAttributes(db *gorm.DB) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if table := db.Statement.Table; table != "" {
		attrs = append(attrs, semconv.DBSQLTable(table))
	}

	sql := db.Statement.SQL.String()
	if len(sql) > p.config.MaxSQLLength {
		sql = sql[:p.config.MaxSQLLength] + "..."
	}
	if sql != "" {
		attrs = append(attrs, semconv.DBStatement(sanitizeSQL(sql)))
	}

	// 只记录参数个数
	if p.config.EnableSQLParams && len(db.Statement.Vars) > 0 {
		attrs = append(attrs, attribute.Int("db.parameter_count", len(db.Statement.Vars)))
	}
	attrs = append(attrs, attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	return attrs
}

// sanitizeSQL 去掉内联的口令类字段
func sanitizeSQL(sql string) string {
	return sensitivePattern.ReplaceAllString(sql, "${1}='***'")
}

func (p *OTELPlugin) setSpanStatus(span trace.Span, db *gorm.DB) {
	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetStatus(codes.Ok, "record not found")
	default:
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}

func (p *OTELPlugin) recordMetrics(ctx context.Context, operation string, err error, duration float64) {
	if dbQueriesTotal == nil || dbQueryDuration == nil {
		return
	}
	status := "success"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
	}

	labels := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.status", status),
	)
	dbQueriesTotal.Add(ctx, 1, labels)
	dbQueryDuration.Record(ctx, duration, labels)
}

// WithOTELPlugin 为 GORM 添加 OpenTelemetry 插件
func WithOTELPlugin(db *gorm.DB, config PluginConfig) error {
	return db.Use(NewOTELPlugin(config))
}

// WithDefaultOTELPlugin 使用默认配置添加 OpenTelemetry 插件
func WithDefaultOTELPlugin(db *gorm.DB, serviceName string) error {
	config := DefaultPluginConfig()
	config.ServiceName = serviceName
	return WithOTELPlugin(db, config)
}
