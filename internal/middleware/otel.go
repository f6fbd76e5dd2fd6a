package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "geoattend/http"

type httpInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	respSize metric.Int64Histogram
	active   metric.Int64UpDownCounter
}

var (
	httpInst     httpInstruments
	httpInstOnce sync.Once
)

func getHTTPInstruments() httpInstruments {
	httpInstOnce.Do(func() {
		var err error
		if httpInst, err = newHTTPInstruments(otel.Meter(instrumentationName)); err != nil {
			httpInst, _ = newHTTPInstruments(noop.NewMeterProvider().Meter(instrumentationName))
		}
	})
	return httpInst
}

func newHTTPInstruments(meter metric.Meter) (httpInstruments, error) {
	var (
		i   httpInstruments
		err error
	)
	if i.requests, err = meter.Int64Counter("http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return i, err
	}
	if i.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0)); err != nil {
		return i, err
	}
	if i.respSize, err = meter.Int64Histogram("http.server.response.size",
		metric.WithDescription("HTTP response size"),
		metric.WithUnit("By")); err != nil {
		return i, err
	}
	if i.active, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return i, err
	}
	return i, nil
}

// toValidUTF8 用户可控字符串先清洗，非法 UTF-8 会导致导出失败
func toValidUTF8(val string) string {
	return strings.ToValidUTF8(val, "")
}

// OpenTelemetryMiddleware 需要挂在认证之后才能拿到 enduser.id
func OpenTelemetryMiddleware() app.HandlerFunc {
	tracer := otel.Tracer(instrumentationName)

	return func(ctx context.Context, c *app.RequestContext) {
		inst := getHTTPInstruments()
		start := time.Now()

		inst.active.Add(ctx, 1)
		defer inst.active.Add(ctx, -1)

		method := toValidUTF8(string(c.Method()))
		// 用路由模板，避免 id 进入标签
		route := toValidUTF8(c.FullPath())
		if route == "" {
			route = toValidUTF8(string(c.Path()))
		}

		spanCtx, span := tracer.Start(ctx, method+" "+route, trace.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			attribute.String("http.user_agent", toValidUTF8(string(c.UserAgent()))),
		))
		defer span.End()

		if employeeID, ok := GetEmployeeID(ctx, c); ok {
			span.SetAttributes(attribute.String("enduser.id", toValidUTF8(employeeID)))
		}
		if requestID := c.GetHeader("X-Request-ID"); len(requestID) > 0 {
			span.SetAttributes(attribute.String("http.request_id", toValidUTF8(string(requestID))))
		}

		c.Next(spanCtx)

		status := c.Response.StatusCode()
		duration := time.Since(start).Seconds()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= 500 {
			span.SetStatus(codes.Error, "HTTP server error")
			if lastErr := c.Errors.Last(); lastErr != nil {
				span.RecordError(lastErr)
			}
		}

		labels := metric.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			semconv.HTTPStatusCode(status),
		)
		inst.requests.Add(ctx, 1, labels)
		inst.duration.Record(ctx, duration, labels)
		if size := int64(len(c.Response.Body())); size > 0 {
			inst.respSize.Record(ctx, size, labels)
		}
	}
}

// NewServerTracerConfig 返回 server 选项和对应的追踪中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
