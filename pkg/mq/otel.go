package mq

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "geoattend/rabbitmq"

type instruments struct {
	messages metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var (
	inst     instruments
	instOnce sync.Once
)

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
	if i.messages, err = meter.Int64Counter("mq.messages.total",
		metric.WithDescription("Total number of RabbitMQ messages"),
		metric.WithUnit("{message}")); err != nil {
		return i, err
	}
	if i.duration, err = meter.Float64Histogram("mq.message.duration",
		metric.WithDescription("RabbitMQ publish / handle duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5)); err != nil {
		return i, err
	}
	if i.errors, err = meter.Int64Counter("mq.errors.total",
		metric.WithDescription("Number of RabbitMQ publish / consume errors"),
		metric.WithUnit("{error}")); err != nil {
		return i, err
	}
	return i, nil
}

// MessageHeaderCarrier 让 amqp.Table 可以承载 trace context
type MessageHeaderCarrier struct {
	Headers amqp.Table
}

var _ propagation.TextMapCarrier = (*MessageHeaderCarrier)(nil)

func (m *MessageHeaderCarrier) Get(key string) string {
	if val, ok := m.Headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (m *MessageHeaderCarrier) Set(key, value string) {
	if m.Headers == nil {
		m.Headers = make(amqp.Table)
	}
	m.Headers[key] = value
}

func (m *MessageHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	return keys
}

// InjectHeaders 复制一份 headers 并写入当前 span 的上下文
func InjectHeaders(ctx context.Context, headers amqp.Table) amqp.Table {
	out := make(amqp.Table, len(headers)+2)
	for k, v := range headers {
		out[k] = v
	}
	otel.GetTextMapPropagator().Inject(ctx, &MessageHeaderCarrier{Headers: out})
	return out
}

// ExtractContext 从消息头恢复上游 trace
func ExtractContext(ctx context.Context, headers amqp.Table) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, &MessageHeaderCarrier{Headers: headers})
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartPublishSpan 返回的 end 需要传入发布结果
func StartPublishSpan(ctx context.Context, exchange, routingKey string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer().Start(ctx, "rabbitmq.publish "+exchange,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			semconv.MessagingDestinationName(exchange),
			semconv.MessagingRabbitmqDestinationRoutingKey(routingKey),
		),
	)

	return ctx, func(err error) {
		record(ctx, span, "publish", routingKey, start, err)
	}
}

// StartConsumeSpan 以消息头里的上游 span 为 parent
func StartConsumeSpan(ctx context.Context, queue string, d amqp.Delivery) (context.Context, func(error)) {
	start := time.Now()
	ctx = ExtractContext(ctx, d.Headers)
	ctx, span := tracer().Start(ctx, "rabbitmq.process "+queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			semconv.MessagingDestinationName(queue),
			semconv.MessagingRabbitmqDestinationRoutingKey(d.RoutingKey),
			semconv.MessagingMessageID(d.MessageId),
			attribute.Bool("messaging.rabbitmq.redelivered", d.Redelivered),
		),
	)

	return ctx, func(err error) {
		record(ctx, span, "process", queue, start, err)
	}
}

func record(ctx context.Context, span trace.Span, operation, destination string, start time.Time, err error) {
	defer span.End()

	status := "success"
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}

	m := getInstruments()
	labels := metric.WithAttributes(
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", destination),
		attribute.String("messaging.status", status),
	)
	m.messages.Add(ctx, 1, labels)
	m.duration.Record(ctx, time.Since(start).Seconds(), labels)
	if err != nil {
		m.errors.Add(ctx, 1, labels)
	}
}
