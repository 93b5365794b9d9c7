// Package mq реализует работу с RabbitMQ для очереди заданий триажа.
//
// Топология:
//
//	triage.jobs (direct)
//	└── triage.jobs.pending [routing: pending]   → triage-worker
//	        DLQ: dlq.triage.jobs
//
//	triage.dlq (direct)
//	└── dlq.triage.jobs [routing: jobs]          → ручной разбор
//
// Сообщения: JSON конверт Message{id, type, payload, timestamp}.
// Consumer подтверждает сообщения вручную: успешная обработка: ack,
// ошибка обработчика: nack с возвратом в очередь, неразбираемое
// сообщение или ErrPermanent: nack в DLQ.
package mq
