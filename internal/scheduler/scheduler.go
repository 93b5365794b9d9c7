package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Triage/internal/config"
	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/repo"
	"github.com/shaiso/Triage/internal/telemetry"
)

const defaultTick = 30 * time.Second

// JobStore: операции над заданиями, нужные планировщику.
type JobStore interface {
	FindActive(ctx context.Context, repo string, issueNumber int) (*domain.Job, error)
	Create(ctx context.Context, job *domain.Job) error
}

// IssueSource находит неразмеченные issues. Реализуется tracker.Tracker.
type IssueSource interface {
	ListUntriagedIssues(ctx context.Context, owner, repo string, limit int) ([]domain.Issue, error)
}

// Publisher публикует job.pending.
type Publisher interface {
	PublishJobPending(ctx context.Context, jobID uuid.UUID) error
}

// Locker: выбор лидера. Реализуется *repo.AdvisoryLock.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
}

// Scheduler: планировщик, ставящий в очередь неразмеченные issues watched репозиториев.
type Scheduler struct {
	jobs      JobStore
	issues    IssueSource
	publisher Publisher
	locker    Locker
	watches   []*Watch
	tick      time.Duration
	logger    *slog.Logger
}

// Config: конфигурация Scheduler.
type Config struct {
	Jobs   JobStore
	Issues IssueSource

	// Publisher опционален: без него задания подхватит polling воркера.
	Publisher Publisher

	// Locker опционален: без него Tick выполняется всегда.
	Locker Locker

	Watches []config.Watch
	Tick    time.Duration // период проверки (default: 30s)
	Logger  *slog.Logger

	// Now: момент, от которого считаются первые срабатывания. Zero: time.Now().
	Now time.Time
}

// New создаёт Scheduler. Watch с некорректным cron или репозиторием: ошибка.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Jobs == nil || cfg.Issues == nil {
		return nil, errors.New("scheduler: jobs and issues are required")
	}

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	watches := make([]*Watch, 0, len(cfg.Watches))
	for i, wc := range cfg.Watches {
		w, err := NewWatch(wc, now)
		if err != nil {
			return nil, fmt.Errorf("watch %d (%s): %w", i, wc.Repo, err)
		}
		watches = append(watches, w)
	}

	tick := cfg.Tick
	if tick <= 0 {
		tick = defaultTick
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		jobs:      cfg.Jobs,
		issues:    cfg.Issues,
		publisher: cfg.Publisher,
		locker:    cfg.Locker,
		watches:   watches,
		tick:      tick,
		logger:    logger,
	}, nil
}

// Watches возвращает разобранные watches.
func (s *Scheduler) Watches() []*Watch {
	return s.watches
}

// Run вызывает Tick с периодом tick до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "tick", s.tick, "watches", len(s.watches))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case t := <-ticker.C:
			if !s.isLeader(ctx) {
				continue
			}
			if err := s.Tick(ctx, t); err != nil {
				s.logger.Error("scheduler tick failed", "error", err)
			}
		}
	}
}

// isLeader пытается стать лидером (или подтвердить лидерство).
func (s *Scheduler) isLeader(ctx context.Context) bool {
	if s.locker == nil {
		return true
	}
	ok, err := s.locker.TryAcquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("leader lock failed", "error", err)
		}
		return false
	}
	return ok
}

// Tick выполняет один тик планировщика.
//
// 1. Находит watches с наступившим временем
// 2. Для каждого берёт неразмеченные issues
// 3. Создаёт задания для issues без активного задания
// 4. Публикует job.pending и переносит следующее время
//
// Ошибки одного watch не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	var due, created int
	var errs []error

	for _, w := range s.watches {
		if !w.IsDue(now) {
			continue
		}
		due++

		n, err := s.processWatch(ctx, w)
		created += n
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("failed to process watch",
				"repo", w.FullRepo(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", w.FullRepo(), err))
		}

		// Следующее время переносится и при ошибке: повтор на следующем срабатывании
		w.advance(now)
	}

	if due > 0 {
		s.logger.Info("scheduler tick completed",
			"due", due,
			"jobs_created", created,
		)
	}

	return errors.Join(errs...)
}

// processWatch ставит в очередь неразмеченные issues одного watch.
// Возвращает количество созданных заданий.
func (s *Scheduler) processWatch(ctx context.Context, w *Watch) (int, error) {
	issues, err := s.issues.ListUntriagedIssues(ctx, w.Owner, w.Repo, w.Limit)
	if err != nil {
		return 0, fmt.Errorf("list untriaged issues: %w", err)
	}

	created := 0
	for i := range issues {
		ref := issues[i].Ref
		if ref.Owner == "" {
			ref = domain.IssueRef{Owner: w.Owner, Repo: w.Repo, Number: issues[i].Ref.Number}
		}

		existing, err := s.jobs.FindActive(ctx, ref.FullRepo(), ref.Number)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return created, fmt.Errorf("find active job: %w", err)
		}
		if existing != nil {
			s.logger.Debug("active job exists, skipping issue",
				"issue", ref.String(),
				"job_id", existing.ID,
			)
			continue
		}

		job := domain.NewJob(ref, w.FixTyposComment, domain.JobSourceScheduler)
		if err := s.jobs.Create(ctx, job); err != nil {
			if errors.Is(err, repo.ErrAlreadyExists) {
				// Задание успели создать параллельно (API или другой тик)
				s.logger.Debug("active job created concurrently, skipping issue",
					"issue", ref.String(),
				)
				continue
			}
			return created, fmt.Errorf("create job for %s: %w", ref, err)
		}
		created++
		telemetry.JobsEnqueued.WithLabelValues(string(job.Source)).Inc()

		s.logger.Info("created job from watch",
			"job_id", job.ID,
			"issue", ref.String(),
		)

		if s.publisher != nil {
			if err := s.publisher.PublishJobPending(ctx, job.ID); err != nil {
				// Не фатальная ошибка: задание уже в БД, воркер заберёт его через polling
				s.logger.Warn("failed to publish job.pending",
					"job_id", job.ID,
					"error", err,
				)
			}
		}
	}

	return created, nil
}
