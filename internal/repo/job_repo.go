package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Triage/internal/domain"
)

// JobRepo: репозиторий для работы с triage_jobs.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// JobFilter: параметры фильтрации заданий.
type JobFilter struct {
	Repo   string
	Status domain.JobStatus
	Limit  int
	Offset int
}

const jobColumns = `
	id, repo, issue_number, fix_typos_comment, source, status, attempt, labels,
	title_updated, body_updated, error, created_at, started_at, finished_at
`

// Create создаёт задание.
func (r *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO triage_jobs (id, repo, issue_number, fix_typos_comment, source, status, attempt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Repo,
		job.IssueNumber,
		job.FixTyposComment,
		job.Source,
		job.Status,
		job.Attempt,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", translate(err))
	}
	return nil
}

// GetByID возвращает задание по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+jobColumns+` FROM triage_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get job by id: %w", err)
	}
	return collectOneJob(rows)
}

// FindActive возвращает незавершённое задание для того же issue.
func (r *JobRepo) FindActive(ctx context.Context, repo string, issueNumber int) (*domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM triage_jobs
		WHERE repo = $1 AND issue_number = $2 AND status IN ('PENDING', 'RUNNING')
		ORDER BY created_at DESC
		LIMIT 1
	`
	rows, err := r.pool.Query(ctx, query, repo, issueNumber)
	if err != nil {
		return nil, fmt.Errorf("find active job: %w", err)
	}
	return collectOneJob(rows)
}

// List возвращает задания с фильтрацией.
func (r *JobRepo) List(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	page := Page{Offset: filter.Offset, Limit: filter.Limit}.normalize(MaxPageSize)
	query := `
		SELECT ` + jobColumns + `
		FROM triage_jobs
		WHERE ($1::text IS NULL OR repo = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Repo),
		nullString(string(filter.Status)),
		page.Limit,
		page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return pgx.CollectRows(rows, scanJob)
}

// ListPending возвращает задания в статусе PENDING, старые первыми.
func (r *JobRepo) ListPending(ctx context.Context, limit int) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM triage_jobs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	return pgx.CollectRows(rows, scanJob)
}

// Claim атомарно переводит задание из PENDING в RUNNING.
// Если задание уже взято другим воркером или завершено, возвращает ErrInvalidState.
func (r *JobRepo) Claim(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `
		UPDATE triage_jobs
		SET status = 'RUNNING', attempt = attempt + 1, started_at = NOW(), finished_at = NULL, error = NULL
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + jobColumns
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	job, err := collectOneJob(rows)
	if errors.Is(err, ErrNotFound) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidState
	}
	return job, err
}

// Update сохраняет состояние задания.
func (r *JobRepo) Update(ctx context.Context, job *domain.Job) error {
	labels := job.Labels
	if labels == nil {
		labels = []string{}
	}
	query := `
		UPDATE triage_jobs
		SET status = $2, attempt = $3, labels = $4, title_updated = $5, body_updated = $6,
		    error = $7, started_at = $8, finished_at = $9
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Status,
		job.Attempt,
		labels,
		job.TitleUpdated,
		job.BodyUpdated,
		nullString(job.Error),
		job.StartedAt,
		job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", translate(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func collectOneJob(rows pgx.Rows) (*domain.Job, error) {
	job, err := pgx.CollectExactlyOneRow(rows, scanJob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func scanJob(row pgx.CollectableRow) (domain.Job, error) {
	var job domain.Job
	var jobError *string

	err := row.Scan(
		&job.ID,
		&job.Repo,
		&job.IssueNumber,
		&job.FixTyposComment,
		&job.Source,
		&job.Status,
		&job.Attempt,
		&job.Labels,
		&job.TitleUpdated,
		&job.BodyUpdated,
		&jobError,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if err != nil {
		return job, fmt.Errorf("scan job: %w", err)
	}
	if jobError != nil {
		job.Error = *jobError
	}
	return job, nil
}

// nullString превращает пустую строку в NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
