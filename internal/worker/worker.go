package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/mq"
	"github.com/shaiso/Triage/internal/triage"
)

// Default configuration values.
const (
	defaultPollInterval   = 10 * time.Second
	defaultBatchSize      = 50
	defaultPrefetch       = 5
	defaultProcessTimeout = 2 * time.Minute
)

// JobStore: операции над заданиями, нужные воркеру.
type JobStore interface {
	Claim(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	Update(ctx context.Context, job *domain.Job) error
	ListPending(ctx context.Context, limit int) ([]domain.Job, error)
}

// Runner выполняет триаж одного issue. Реализуется *triage.Service.
type Runner interface {
	Run(ctx context.Context, ref domain.IssueRef, opts triage.Options) (*triage.Result, error)
}

// Worker выполняет задания на триаж.
type Worker struct {
	jobs   JobStore
	runner Runner
	conn   *mq.Connection

	pollInterval   time.Duration
	batchSize      int
	prefetch       int
	processTimeout time.Duration
	retry          RetryPolicy

	logger *slog.Logger
}

// Config: конфигурация Worker.
type Config struct {
	Jobs   JobStore
	Runner Runner

	// Conn: соединение с RabbitMQ. nil: работает только polling.
	Conn *mq.Connection

	PollInterval   time.Duration // интервал polling (default: 10s)
	BatchSize      int           // заданий за один poll (default: 50)
	Prefetch       int           // prefetch consumer'а (default: 5)
	ProcessTimeout time.Duration // таймаут одной попытки (default: 2m)

	Retry RetryPolicy

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	processTimeout := cfg.ProcessTimeout
	if processTimeout <= 0 {
		processTimeout = defaultProcessTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		jobs:           cfg.Jobs,
		runner:         cfg.Runner,
		conn:           cfg.Conn,
		pollInterval:   pollInterval,
		batchSize:      batchSize,
		prefetch:       prefetch,
		processTimeout: processTimeout,
		retry:          cfg.Retry.withDefaults(),
		logger:         logger,
	}
}

// Run запускает consumer job.pending и polling и блокируется до отмены ctx.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"max_attempts", w.retry.MaxAttempts,
		"backoff", w.retry.Backoff,
	)

	g, ctx := errgroup.WithContext(ctx)

	if w.conn != nil {
		consumer := mq.NewConsumer(w.conn, mq.ConsumerConfig{
			Queue:    mq.QueueJobsPending,
			Handler:  w.handleJobPending,
			Prefetch: w.prefetch,
			Logger:   w.logger,
		})
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	} else {
		w.logger.Warn("no rabbitmq connection, running in polling mode only")
	}

	g.Go(func() error {
		w.pollLoop(ctx)
		return nil
	})

	err := g.Wait()
	w.logger.Info("worker stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollLoop: цикл polling для fallback.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем задания, созданные пока были выключены)
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (w *Worker) poll(ctx context.Context) {
	jobs, err := w.jobs.ListPending(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("failed to list pending jobs", "error", err)
		}
		return
	}

	if len(jobs) == 0 {
		return
	}

	w.logger.Debug("poll found pending jobs", "count", len(jobs))

	for i := range jobs {
		if ctx.Err() != nil {
			return
		}
		err := w.ProcessJob(ctx, jobs[i].ID)
		if err != nil && !errors.Is(err, ErrJobNotPending) && !errors.Is(err, ErrJobNotFound) {
			w.logger.Error("failed to process job from poll",
				"job_id", jobs[i].ID,
				"error", err,
			)
		}
	}
}
