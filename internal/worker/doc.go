// Package worker выполняет задания на триаж.
//
// # Обзор
//
// Worker: stateless компонент системы Triage, который:
//
//   - Получает job.pending из очереди RabbitMQ (event-driven)
//   - Периодически проверяет PENDING задания в БД (polling fallback)
//   - Запускает triage.Service для issue задания
//   - Повторяет временные ошибки с backoff
//   - Сохраняет результат (метки, флаги правок, ошибку) в задании
//
// Workers масштабируются горизонтально: задание забирается условным
// UPDATE ... WHERE status = 'PENDING', поэтому один и тот же job
// никогда не выполняется дважды.
//
// # Обработка задания
//
//  1. Claim: PENDING → RUNNING, инкремент Attempt
//  2. triage.Service.Run с таймаутом ProcessTimeout
//  3. Успех или ErrNoCorrectedText → MarkSucceeded
//  4. Временная ошибка и есть попытки → backoff, новая попытка
//  5. Иначе → MarkFailed
//
// # Retry
//
// Retry выполняется в процессе, а не через requeue в RabbitMQ.
//
// Стратегии backoff:
//   - "exponential": delay = initialDelay * 2^(attempt-1), не больше maxDelay
//   - "fixed": delay = initialDelay
//
// Постоянные ошибки (issue не найден, неверный репозиторий, нет ключа API)
// не повторяются.
package worker
