// Triage Scheduler: ставит в очередь неразмеченные issues watched репозиториев.
//
// Несколько экземпляров безопасны: тики выполняет только владелец
// pg_try_advisory_lock.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Triage/internal/config"
	"github.com/shaiso/Triage/internal/mq"
	"github.com/shaiso/Triage/internal/repo"
	"github.com/shaiso/Triage/internal/scheduler"
	"github.com/shaiso/Triage/internal/telemetry"
	"github.com/shaiso/Triage/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	logger := telemetry.SetupLogger()
	logger.Info("starting triage-scheduler")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.GitHub.Token == "" {
		logger.Error("GITHUB_TOKEN is required")
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("db connected")

	gh, err := tracker.NewGitHub(tracker.GitHubConfig{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create github client", "error", err)
		os.Exit(1)
	}

	lock := repo.NewAdvisoryLock(pool, repo.SchedulerLockKey)
	defer func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		if err := lock.Release(releaseCtx); err != nil {
			logger.Warn("failed to release leader lock", "error", err)
		}
	}()

	schedCfg := scheduler.Config{
		Jobs:    repo.NewJobRepo(pool),
		Issues:  gh,
		Locker:  lock,
		Watches: cfg.Scheduler.Watches,
		Tick:    cfg.Scheduler.Tick,
		Logger:  logger,
	}

	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, jobs will be picked up by polling", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		schedCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	sched, err := scheduler.New(schedCfg)
	if err != nil {
		logger.Error("invalid scheduler configuration", "error", err)
		os.Exit(1)
	}
	for _, w := range sched.Watches() {
		logger.Info("watching repository", "repo", w.FullRepo(), "cron", w.CronExpr, "next_due", w.NextDue())
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(func() error {
		return telemetry.ServeHealth(ctx, ":"+cfg.Scheduler.Port, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("triage-scheduler failed", "error", err)
		os.Exit(1)
	}
	logger.Info("triage-scheduler stopped")
}
