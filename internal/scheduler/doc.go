// Package scheduler периодически ставит в очередь неразмеченные issues.
//
// Для каждого watch из конфигурации (репозиторий + cron) Scheduler
// в момент срабатывания запрашивает открытые issues без меток и создаёт
// задания с source=scheduler. Issue, для которого уже есть PENDING или
// RUNNING задание, пропускается.
//
// Структура:
//   - scheduler.go: основная логика Scheduler (Tick, processWatch)
//   - cron.go     : разбор watch и cron-выражений
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Jobs:      jobRepo,
//	    Issues:    gh,
//	    Publisher: publisher, // опционально
//	    Locker:    repo.NewAdvisoryLock(pool, repo.SchedulerLockKey),
//	    Watches:   cfg.Scheduler.Watches,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sched.Run(ctx)
//
// Leader Election:
//
// Несколько экземпляров планировщика безопасны: Tick выполняет только
// владелец pg_try_advisory_lock.
package scheduler
