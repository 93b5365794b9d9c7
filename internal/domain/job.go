package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobSource: откуда пришёл запрос на триаж.
type JobSource string

const (
	JobSourceAPI       JobSource = "api"
	JobSourceScheduler JobSource = "scheduler"
	JobSourceCLI       JobSource = "cli"
)

// Job: задание на триаж одного issue.
//
// Job создаётся через API или планировщиком и выполняется воркером.
type Job struct {
	// ID: уникальный идентификатор задания.
	ID uuid.UUID `json:"id"`

	// Repo: репозиторий в формате owner/repo.
	Repo string `json:"repo"`

	// IssueNumber: номер issue.
	IssueNumber int `json:"issue_number"`

	// FixTyposComment: добавлять ли сворачиваемый комментарий с исправленным текстом.
	FixTyposComment bool `json:"fix_typos_comment"`

	// Source: источник задания.
	Source JobSource `json:"source"`

	// Status: текущий статус.
	Status JobStatus `json:"status"`

	// Attempt: номер попытки (начиная с 1 после первого запуска).
	Attempt int `json:"attempt"`

	// Labels: метки, применённые к issue.
	Labels []string `json:"labels,omitempty"`

	// TitleUpdated, BodyUpdated: были ли изменены заголовок и тело issue.
	TitleUpdated bool `json:"title_updated"`
	BodyUpdated  bool `json:"body_updated"`

	// Error: текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewJob создаёт задание в статусе PENDING.
func NewJob(ref IssueRef, fixTyposComment bool, source JobSource) *Job {
	return &Job{
		ID:              uuid.New(),
		Repo:            ref.FullRepo(),
		IssueNumber:     ref.Number,
		FixTyposComment: fixTyposComment,
		Source:          source,
		Status:          JobStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

// IssueRef возвращает ссылку на issue задания.
func (j *Job) IssueRef() (IssueRef, error) {
	return NewIssueRef(j.Repo, j.IssueNumber)
}

// IsFinished возвращает true, если задание завершено.
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// Duration возвращает продолжительность выполнения.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// MarkRunning переводит задание в RUNNING и увеличивает Attempt.
func (j *Job) MarkRunning() {
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.FinishedAt = nil
	j.Attempt++
}

// MarkSucceeded фиксирует успешный результат.
func (j *Job) MarkSucceeded(labels []string, titleUpdated, bodyUpdated bool) {
	now := time.Now().UTC()
	j.Status = JobStatusSucceeded
	j.FinishedAt = &now
	j.Labels = labels
	j.TitleUpdated = titleUpdated
	j.BodyUpdated = bodyUpdated
	j.Error = ""
}

// MarkFailed фиксирует ошибку.
func (j *Job) MarkFailed(err string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.Error = err
}

// ResetForRetry возвращает задание в PENDING.
// Attempt увеличится при следующем MarkRunning().
func (j *Job) ResetForRetry() {
	j.Status = JobStatusPending
	j.StartedAt = nil
	j.FinishedAt = nil
	j.Error = ""
}

// CanRetry проверяет, осталась ли ещё попытка.
func (j *Job) CanRetry(maxAttempts int) bool {
	return j.Attempt < maxAttempts
}
