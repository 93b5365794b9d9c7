package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPermanent помечает ошибку обработчика, после которой сообщение
// не возвращается в очередь, а уходит в DLQ.
var ErrPermanent = errors.New("permanent failure")

// Handler обрабатывает одно сообщение.
type Handler func(ctx context.Context, msg *Message) error

// Consumer потребляет сообщения из очереди RabbitMQ.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int
}

// ConsumerConfig: конфигурация consumer.
type ConsumerConfig struct {
	Queue    Queue
	Handler  Handler
	Prefetch int
	Logger   *slog.Logger
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Run потребляет сообщения до отмены ctx, переживая переподключения.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deliveries, err := c.setupConsume()
		if err != nil {
			c.logger.Error("failed to setup consume", "error", err)
			if !c.waitReconnect(ctx) {
				return ctx.Err()
			}
			continue
		}

		c.logger.Info("consumer started", "prefetch", c.prefetch)

		if err := c.processDeliveries(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, waiting for reconnect")
			if !c.waitReconnect(ctx) {
				return ctx.Err()
			}
		}
	}
}

func (c *Consumer) waitReconnect(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.conn.ReconnectNotify():
		return true
	}
}

func (c *Consumer) setupConsume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(c.queue),
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

func (c *Consumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(raw, c.dispatch(ctx, raw.Body))
		}
	}
}

// outcome: чем закончить доставку.
type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeDeadLetter
)

// dispatch разбирает тело сообщения и вызывает обработчик.
func (c *Consumer) dispatch(ctx context.Context, body []byte) outcome {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		c.logger.Error("failed to unmarshal message", "error", err, "body", string(body))
		return outcomeDeadLetter
	}

	c.logger.Debug("received message", "message_id", msg.ID, "type", msg.Type)

	if err := c.handler(ctx, &msg); err != nil {
		if errors.Is(err, ErrPermanent) {
			c.logger.Error("handler failed permanently",
				"message_id", msg.ID,
				"type", msg.Type,
				"error", err,
			)
			return outcomeDeadLetter
		}
		c.logger.Warn("handler failed, requeueing",
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
		return outcomeRequeue
	}
	return outcomeAck
}

func (c *Consumer) settle(raw amqp.Delivery, o outcome) {
	var err error
	switch o {
	case outcomeAck:
		err = raw.Ack(false)
	case outcomeRequeue:
		err = raw.Nack(false, true)
	case outcomeDeadLetter:
		err = raw.Nack(false, false)
	}
	if err != nil {
		c.logger.Warn("failed to settle delivery", "error", err)
	}
}

// ParsePayload декодирует payload сообщения в T.
// После json.Unmarshal конверта payload: map[string]any, поэтому он
// перекодируется через JSON.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
