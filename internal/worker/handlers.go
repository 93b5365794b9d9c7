package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/mq"
	"github.com/shaiso/Triage/internal/repo"
	"github.com/shaiso/Triage/internal/telemetry"
	"github.com/shaiso/Triage/internal/triage"
)

// Стратегии backoff.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// RetryPolicy: правила повтора временных ошибок.
type RetryPolicy struct {
	MaxAttempts  int
	Backoff      string
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Backoff == "" {
		p.Backoff = BackoffExponential
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 2 * time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	return p
}

// handleJobPending обрабатывает событие job.pending.
func (w *Worker) handleJobPending(ctx context.Context, msg *mq.Message) error {
	payload, err := mq.ParsePayload[mq.JobPendingPayload](msg)
	if err != nil {
		return fmt.Errorf("%w: %w", mq.ErrPermanent, err)
	}
	if payload.JobID == uuid.Nil {
		return fmt.Errorf("%w: empty job_id", mq.ErrPermanent)
	}

	w.logger.Debug("received job.pending event", "job_id", payload.JobID)

	if err := w.ProcessJob(ctx, payload.JobID); err != nil {
		// Ожидаемые ситуации: не возвращаем ошибку (ack)
		if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotPending) {
			w.logger.Debug("job not processed", "job_id", payload.JobID, "reason", err)
			return nil
		}
		return err
	}
	return nil
}

// ProcessJob забирает задание, выполняет триаж и сохраняет результат.
//
// Возвращает ErrJobNotFound или ErrJobNotPending, если задание выполнять не нужно.
func (w *Worker) ProcessJob(ctx context.Context, id uuid.UUID) error {
	job, err := w.jobs.Claim(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return fmt.Errorf("%w: %s", ErrJobNotFound, id)
		case errors.Is(err, repo.ErrInvalidState):
			return fmt.Errorf("%w: %s", ErrJobNotPending, id)
		default:
			return fmt.Errorf("claim job: %w", err)
		}
	}

	logger := telemetry.WithJobID(w.logger, job.ID.String()).With("repo", job.Repo, "issue", job.IssueNumber)
	logger.Info("job started", "attempt", job.Attempt, "source", job.Source)

	ref, err := job.IssueRef()
	if err != nil {
		return w.fail(ctx, job, err)
	}

	result, runErr := w.runWithRetry(ctx, job, ref)

	if runErr != nil && ctx.Err() != nil {
		// Остановка воркера: возвращаем задание в очередь для следующего запуска
		job.ResetForRetry()
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := w.jobs.Update(saveCtx, job); err != nil {
			logger.Error("failed to release job on shutdown", "error", err)
		}
		return ctx.Err()
	}

	if runErr != nil && !errors.Is(runErr, triage.ErrNoCorrectedText) {
		return w.fail(ctx, job, runErr)
	}
	if runErr != nil {
		logger.Warn("job finished without corrected text", "labels", result.Labels)
	}

	job.MarkSucceeded(result.Labels, result.TitleUpdated, result.BodyUpdated)
	if err := w.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("update job to succeeded: %w", err)
	}
	telemetry.JobsProcessed.WithLabelValues(string(job.Status)).Inc()

	logger.Info("job succeeded",
		"attempt", job.Attempt,
		"labels", job.Labels,
		"title_updated", job.TitleUpdated,
		"body_updated", job.BodyUpdated,
		"duration", job.Duration(),
	)
	return nil
}

// fail переводит задание в FAILED.
func (w *Worker) fail(ctx context.Context, job *domain.Job, cause error) error {
	job.MarkFailed(cause.Error())
	if err := w.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("update job to failed: %w", err)
	}
	telemetry.JobsProcessed.WithLabelValues(string(job.Status)).Inc()

	w.logger.Warn("job failed",
		"job_id", job.ID,
		"repo", job.Repo,
		"issue", job.IssueNumber,
		"attempt", job.Attempt,
		"error", cause,
	)
	return nil
}

// runWithRetry выполняет триаж, повторяя временные ошибки.
func (w *Worker) runWithRetry(ctx context.Context, job *domain.Job, ref domain.IssueRef) (*triage.Result, error) {
	opts := triage.Options{FixTyposComment: job.FixTyposComment}

	for {
		result, err := w.runOnce(ctx, ref, opts)
		if err == nil || errors.Is(err, triage.ErrNoCorrectedText) {
			if result == nil {
				result = &triage.Result{}
			}
			return result, err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !job.CanRetry(w.retry.MaxAttempts) || !triage.IsRetryable(err) {
			return nil, err
		}

		delay := calculateBackoff(job.Attempt, w.retry)

		w.logger.Info("retrying job",
			"job_id", job.ID,
			"attempt", job.Attempt,
			"delay", delay,
			"error", err,
		)

		// Ждём с учётом context
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		// Сброс и новая попытка
		job.ResetForRetry()
		job.MarkRunning()
		if err := w.jobs.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("update job for retry: %w", err)
		}
	}
}

// runOnce выполняет одну попытку с таймаутом processTimeout.
func (w *Worker) runOnce(ctx context.Context, ref domain.IssueRef, opts triage.Options) (*triage.Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, w.processTimeout)
	defer cancel()

	result, err := w.runner.Run(runCtx, ref, opts)
	if err != nil && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%w after %s: %w", ErrProcessTimeout, w.processTimeout, err)
	}
	return result, err
}

// calculateBackoff вычисляет задержку перед retry.
func calculateBackoff(attempt int, policy RetryPolicy) time.Duration {
	initialDelay := policy.InitialDelay
	if initialDelay <= 0 {
		initialDelay = time.Second
	}

	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	var delay time.Duration
	switch policy.Backoff {
	case BackoffExponential:
		// delay = initialDelay * 2^(attempt-1)
		delay = initialDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
				break
			}
		}
	default:
		// "fixed" или неизвестный: используем initialDelay
		delay = initialDelay
	}

	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}
