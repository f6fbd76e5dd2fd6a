package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"GeoAttend/internal/model"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/metrics"
	"GeoAttend/pkg/snowflake"
	"GeoAttend/storage/mq"
)

type publishFunc func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error

// Producer 发布打卡尝试事件
type Producer struct {
	publish publishFunc
}

func NewProducer() *Producer {
	return &Producer{publish: mq.PublishMessage}
}

// PublishAttempt 补齐 message_id 和 occurred_at 后发布
func (p *Producer) PublishAttempt(ctx context.Context, msg model.AttendanceAttemptMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = newMessageID()
	}
	if msg.OccurredAt == "" {
		msg.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	err := p.publish(ctx, mq.EventsExchange, mq.AttemptRoutingKey, msg.MessageID, msg)
	if err != nil {
		metrics.GetMetrics().RecordAttemptEvent(ctx, "publish", "error")
		logger.Logger.Error("Failed to publish attendance attempt",
			zap.String("message_id", msg.MessageID),
			zap.String("employee_id", msg.EmployeeID),
			zap.String("action", msg.Action),
			zap.Error(err),
		)
		return fmt.Errorf("publish attendance attempt: %w", err)
	}

	metrics.GetMetrics().RecordAttemptEvent(ctx, "publish", "success")
	logger.Logger.Debug("Published attendance attempt",
		zap.String("message_id", msg.MessageID),
		zap.String("employee_id", msg.EmployeeID),
		zap.String("reason", msg.Reason),
	)
	return nil
}

// snowflake 未初始化时退回 uuid
func newMessageID() string {
	if id, err := snowflake.NextIDWithPrefix("att_"); err == nil {
		return id
	}
	return "att_" + uuid.NewString()
}
