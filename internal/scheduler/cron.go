package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Triage/internal/config"
	"github.com/shaiso/Triage/internal/domain"
)

// defaultWatchLimit: сколько issues брать за один проход watch.
const defaultWatchLimit = 10

// cronParser: парсер cron-выражений (5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Watch: репозиторий под наблюдением с разобранным расписанием.
type Watch struct {
	Owner           string
	Repo            string
	CronExpr        string
	FixTyposComment bool
	Limit           int

	schedule cron.Schedule
	nextDue  time.Time
}

// FullRepo возвращает "owner/repo".
func (w *Watch) FullRepo() string {
	return w.Owner + "/" + w.Repo
}

// NextDue возвращает время следующего прохода.
func (w *Watch) NextDue() time.Time {
	return w.nextDue
}

// IsDue проверяет, пора ли выполнять проход.
func (w *Watch) IsDue(now time.Time) bool {
	return !now.Before(w.nextDue)
}

// advance переносит nextDue на следующее срабатывание после now.
func (w *Watch) advance(now time.Time) {
	w.nextDue = w.schedule.Next(now).UTC()
}

// NewWatch разбирает настройку watch. from: момент, от которого
// считается первое срабатывание.
func NewWatch(cfg config.Watch, from time.Time) (*Watch, error) {
	owner, repo, err := domain.ParseRepo(cfg.Repo)
	if err != nil {
		return nil, err
	}

	schedule, err := ParseCron(cfg.Cron)
	if err != nil {
		return nil, err
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultWatchLimit
	}

	w := &Watch{
		Owner:           owner,
		Repo:            repo,
		CronExpr:        cfg.Cron,
		FixTyposComment: cfg.FixTyposComment,
		Limit:           limit,
		schedule:        schedule,
	}
	w.advance(from)
	return w, nil
}

// ParseCron проверяет и разбирает cron-выражение.
func ParseCron(expr string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}
