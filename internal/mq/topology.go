package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange: тип для имени обменника.
type Exchange string

// Queue: тип для имени очереди.
type Queue string

// RoutingKey: тип для ключа маршрутизации.
type RoutingKey string

// Exchanges: имена обменников.
const (
	ExchangeJobs Exchange = "triage.jobs"
	ExchangeDLQ  Exchange = "triage.dlq"
)

// Queues: имена очередей.
const (
	QueueJobsPending Queue = "triage.jobs.pending"
	QueueDLQJobs     Queue = "dlq.triage.jobs"
)

// Routing keys.
const (
	RoutingKeyPending RoutingKey = "pending"
	RoutingKeyDLQJobs RoutingKey = "jobs"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// Topology: полный набор объявлений RabbitMQ.
type Topology struct {
	Exchanges []exchangeDecl
	Queues    []queueDecl
	Bindings  []bindingDecl
}

// JobsTopology возвращает топологию очереди заданий триажа.
func JobsTopology() Topology {
	return Topology{
		Exchanges: []exchangeDecl{
			{ExchangeJobs, amqp.ExchangeDirect},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		Queues: []queueDecl{
			{QueueJobsPending, amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQJobs),
			}},
			{QueueDLQJobs, nil},
		},
		Bindings: []bindingDecl{
			{QueueJobsPending, RoutingKeyPending, ExchangeJobs},
			{QueueDLQJobs, RoutingKeyDLQJobs, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет обменники, очереди и привязки.
// Объявления идемпотентны: повторный вызов с теми же аргументами ничего не меняет.
func SetupTopology(ctx context.Context, conn *Connection) error {
	topo := JobsTopology()
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range topo.Exchanges {
			if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range topo.Queues {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range topo.Bindings {
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}
