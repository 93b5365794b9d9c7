// Triage API: REST backend для users, profiles, tasks, workspaces, works
// и заданий на триаж.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shaiso/Triage/internal/api"
	"github.com/shaiso/Triage/internal/config"
	"github.com/shaiso/Triage/internal/mq"
	"github.com/shaiso/Triage/internal/repo"
	"github.com/shaiso/Triage/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting triage-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// RabbitMQ опционален: без него воркер заберёт задания через polling
	handlerCfg := api.Config{
		Users:      repo.NewUserRepo(pool),
		Tasks:      repo.NewTaskRepo(pool),
		Workspaces: repo.NewWorkspaceRepo(pool),
		Works:      repo.NewWorkRepo(pool),
		Jobs:       repo.NewJobRepo(pool),
		APIToken:   cfg.API.Token,
		Logger:     logger,
	}

	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, jobs will be picked up by polling", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		handlerCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	handler := api.NewHandler(handlerCfg)

	addr := ":" + cfg.API.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
