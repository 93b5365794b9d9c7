// Triage Worker: выполняет задания на триаж.
//
// Worker:
//   - Получает job.pending из RabbitMQ
//   - Подхватывает PENDING задания через polling
//   - Классифицирует issue и применяет метки и правки
//   - Повторяет временные ошибки с backoff
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Triage/internal/config"
	"github.com/shaiso/Triage/internal/mq"
	"github.com/shaiso/Triage/internal/repo"
	"github.com/shaiso/Triage/internal/telemetry"
	"github.com/shaiso/Triage/internal/triage"
	"github.com/shaiso/Triage/internal/worker"
)

func main() {
	_ = godotenv.Load()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting triage-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := triage.Setup(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to setup triage service", "error", err)
		os.Exit(1)
	}

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// RabbitMQ
	var mqConn *mq.Connection
	mqConn, err = mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
	}

	w := worker.New(worker.Config{
		Jobs:           repo.NewJobRepo(pool),
		Runner:         svc,
		Conn:           mqConn,
		PollInterval:   cfg.Worker.PollInterval,
		BatchSize:      cfg.Worker.BatchSize,
		Prefetch:       cfg.Worker.Prefetch,
		ProcessTimeout: cfg.Worker.ProcessTimeout,
		Retry: worker.RetryPolicy{
			MaxAttempts:  cfg.Worker.MaxAttempts,
			Backoff:      cfg.Worker.Backoff,
			InitialDelay: cfg.Worker.InitialDelay,
			MaxDelay:     cfg.Worker.MaxDelay,
		},
		Logger: logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(ctx)
	})
	g.Go(func() error {
		return telemetry.ServeHealth(ctx, ":"+cfg.Worker.Port, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("triage-worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("triage-worker stopped")
}
