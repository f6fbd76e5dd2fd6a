package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"GeoAttend/internal/cache"
	"GeoAttend/internal/model"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/metrics"
	"GeoAttend/pkg/snowflake"
	"GeoAttend/storage/mq"
)

const messageMarkTTL = 24 * time.Hour

// AttemptWriter 审计记录落库
type AttemptWriter interface {
	CreateAttempt(ctx context.Context, attempt *model.AttendanceAttempt) (bool, error)
}

// AttemptHandler 把事件写成 attendance_attempts，redis 标记加 message_id 唯一索引双重去重
func AttemptHandler(store AttemptWriter) mq.MessageHandler {
	return func(ctx context.Context, body []byte) error {
		var msg model.AttendanceAttemptMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal attendance attempt: %w", err)
		}
		if msg.MessageID == "" {
			return fmt.Errorf("attendance attempt without message id: %w", mq.ErrSkip)
		}

		first, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, messageMarkTTL)
		if err != nil {
			// redis 不可用时继续处理，靠唯一索引兜底
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else if !first {
			logger.Logger.Info("Attempt message already processed, skipping",
				zap.String("message_id", msg.MessageID),
			)
			metrics.GetMetrics().RecordAttemptEvent(ctx, "consume", "duplicate")
			return fmt.Errorf("message %s: %w", msg.MessageID, mq.ErrSkip)
		}

		attempt, err := toAttempt(msg)
		if err != nil {
			_ = cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return err
		}

		inserted, err := store.CreateAttempt(ctx, attempt)
		if err != nil {
			if uerr := cache.UnmarkMessageProcessing(ctx, msg.MessageID); uerr != nil {
				logger.Logger.Warn("Failed to unmark message", zap.String("message_id", msg.MessageID), zap.Error(uerr))
			}
			metrics.GetMetrics().RecordAttemptEvent(ctx, "consume", "error")
			return fmt.Errorf("failed to store attendance attempt: %w", err)
		}

		result := "stored"
		if !inserted {
			result = "duplicate"
		}
		metrics.GetMetrics().RecordAttemptEvent(ctx, "consume", result)

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 2*messageMarkTTL); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		logger.Logger.Debug("Attendance attempt stored",
			zap.String("message_id", msg.MessageID),
			zap.String("employee_id", msg.EmployeeID),
			zap.Bool("inserted", inserted),
		)
		return nil
	}
}

func toAttempt(msg model.AttendanceAttemptMessage) (*model.AttendanceAttempt, error) {
	occurredAt, err := time.Parse(time.RFC3339Nano, msg.OccurredAt)
	if err != nil {
		return nil, fmt.Errorf("invalid occurred_at %q: %w", msg.OccurredAt, err)
	}

	id, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attempt id: %w", err)
	}

	return &model.AttendanceAttempt{
		ID:                      id,
		MessageID:               msg.MessageID,
		EmployeeID:              msg.EmployeeID,
		Date:                    msg.Date,
		Action:                  model.AttemptAction(msg.Action),
		CanAttend:               msg.CanAttend,
		Reason:                  msg.Reason,
		LocationError:           msg.LocationError,
		ZoneID:                  msg.ZoneID,
		DistanceMeters:          msg.DistanceMeters,
		UsedRemoteWorkException: msg.UsedRemoteWorkException,
		GrantMatch:              msg.GrantMatch,
		Outcome:                 msg.Outcome,
		OccurredAt:              occurredAt,
	}, nil
}

// StartAttemptConsumer worker 入口，阻塞直到 ctx 取消
func StartAttemptConsumer(ctx context.Context, store AttemptWriter, prefetch int) error {
	if prefetch <= 0 {
		prefetch = 10
	}
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.AttemptQueue,
		ConsumerTag:   "attendance_attempt_consumer",
		PrefetchCount: prefetch,
		Handler:       AttemptHandler(store),
	})
}
