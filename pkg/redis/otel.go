package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "geoattend/redis"

type instruments struct {
	commands metric.Int64Counter
	duration metric.Float64Histogram
	hits     metric.Int64Counter
	misses   metric.Int64Counter
}

var (
	inst     instruments
	instOnce sync.Once
)

// 指标在第一次执行命令时创建，创建失败时退化为 noop
func getInstruments() instruments {
	instOnce.Do(func() {
		var err error
		if inst, err = newInstruments(otel.Meter(instrumentationName)); err != nil {
			inst, _ = newInstruments(noop.NewMeterProvider().Meter(instrumentationName))
		}
	})
	return inst
}

func newInstruments(meter metric.Meter) (instruments, error) {
	var (
		i   instruments
		err error
	)
	if i.commands, err = meter.Int64Counter("redis.commands.total",
		metric.WithDescription("Total number of Redis commands"),
		metric.WithUnit("{command}")); err != nil {
		return i, err
	}
	if i.duration, err = meter.Float64Histogram("redis.command.duration",
		metric.WithDescription("Redis command duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0)); err != nil {
		return i, err
	}
	if i.hits, err = meter.Int64Counter("redis.cache.hits",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}")); err != nil {
		return i, err
	}
	if i.misses, err = meter.Int64Counter("redis.cache.misses",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}")); err != nil {
		return i, err
	}
	return i, nil
}

// TracingHook 给每条命令开一个 client span，并记录命令指标
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

func NewTracingHook(serviceName string, db int) *TracingHook {
	return NewTracingHookWithProvider(otel.GetTracerProvider(), serviceName, db)
}

func NewTracingHookWithProvider(tp trace.TracerProvider, serviceName string, db int) *TracingHook {
	return &TracingHook{
		tracer: tp.Tracer(instrumentationName),
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			semconv.DBRedisDBIndex(db),
			attribute.String("service.name", serviceName),
		},
	}
}

func (th *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (th *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		name := strings.ToLower(cmd.Name())
		ctx, span := th.tracer.Start(ctx, "redis."+name,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		span.SetAttributes(semconv.DBOperation(name))
		// 只记录 key，不记录 value
		if keys := extractKeys(cmd.Args()); len(keys) > 0 {
			span.SetAttributes(attribute.StringSlice("redis.keys", keys))
		}

		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start).Seconds()

		status := "success"
		switch {
		case errors.Is(err, redis.Nil):
			status = "not_found"
		case err != nil:
			status = "error"
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}

		m := getInstruments()
		labels := metric.WithAttributes(
			attribute.String("redis.command", name),
			attribute.String("redis.status", status),
		)
		m.commands.Add(ctx, 1, labels)
		m.duration.Record(ctx, elapsed, labels)

		if name == "get" || name == "mget" {
			if errors.Is(err, redis.Nil) {
				m.misses.Add(ctx, 1)
			} else if err == nil {
				m.hits.Add(ctx, 1)
			}
		}

		return err
	}
}

func (th *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, strings.ToLower(cmd.Name()))
		}
		span.SetAttributes(
			attribute.Int("redis.pipeline.count", len(cmds)),
			attribute.String("redis.pipeline.commands", strings.Join(names, ",")),
		)

		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Error, err.Error())
		}

		getInstruments().commands.Add(ctx, 1, metric.WithAttributes(
			attribute.String("redis.command", "pipeline"),
		))
		return err
	}
}

// extractKeys 跳过命令名，最多取 5 个字符串参数
func extractKeys(args []interface{}) []string {
	if len(args) < 2 {
		return nil
	}
	keys := make([]string, 0, len(args)-1)
	for i := 1; i < len(args) && len(keys) < 5; i++ {
		if key, ok := args[i].(string); ok {
			keys = append(keys, sanitizeKey(key))
		}
	}
	return keys
}

func sanitizeKey(key string) string {
	if strings.Contains(key, "token") || strings.Contains(key, "session") {
		if i := strings.Index(key, ":"); i > 0 {
			return key[:i] + ":***"
		}
		return "***"
	}
	if len(key) > 100 {
		return key[:100] + "..."
	}
	return key
}
