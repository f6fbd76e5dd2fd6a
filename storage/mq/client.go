package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"GeoAttend/config"
	"GeoAttend/pkg/logger"
)

// 考勤事件拓扑
const (
	EventsExchange     = "attendance.events"
	DeadLetterExchange = "attendance.events.dlx"
	AttemptRoutingKey  = "attendance.attempt"
	AttemptQueue       = "attendance.attempts"
	AttemptDeadQueue   = "attendance.attempts.dlq"
)

var (
	conn     *amqp.Connection
	connMu   sync.RWMutex
	initOnce sync.Once
	initErr  error
)

func Init() error {
	initOnce.Do(func() {
		c, err := amqp.Dial(config.Cfg.GetRabbitMQURL())
		if err != nil {
			initErr = fmt.Errorf("failed to connect RabbitMQ: %w", err)
			return
		}

		if err := declareTopology(c); err != nil {
			_ = c.Close()
			initErr = err
			return
		}

		connMu.Lock()
		conn = c
		connMu.Unlock()

		logger.Logger.Info("RabbitMQ connected",
			zap.String("addr", config.Cfg.RabbitMQAddr),
			zap.String("exchange", EventsExchange),
		)
	})
	return initErr
}

// declareTopology 主队列失败的消息经 dlx 进入 dlq
func declareTopology(c *amqp.Connection) error {
	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", EventsExchange, err)
	}
	if err := ch.ExchangeDeclare(DeadLetterExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", DeadLetterExchange, err)
	}

	if _, err := ch.QueueDeclare(AttemptDeadQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", AttemptDeadQueue, err)
	}
	if err := ch.QueueBind(AttemptDeadQueue, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", AttemptDeadQueue, err)
	}

	if _, err := ch.QueueDeclare(AttemptQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", AttemptQueue, err)
	}
	if err := ch.QueueBind(AttemptQueue, AttemptRoutingKey, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", AttemptQueue, err)
	}
	return nil
}

func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

func Close(ctx context.Context) error {
	pubMutex.Lock()
	if publisherCh != nil {
		_ = publisherCh.Close()
		publisherCh = nil
	}
	pubMutex.Unlock()

	connMu.Lock()
	defer connMu.Unlock()
	if conn == nil || conn.IsClosed() {
		return nil
	}
	err := conn.Close()
	conn = nil
	return err
}
