package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Triage/internal/domain"
)

// TaskRepo: репозиторий для работы с tasks.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// TaskFilter: параметры фильтрации tasks.
type TaskFilter struct {
	UserID *int64
	Page   Page
}

const taskColumns = `id, title, description, user_id, created_at, updated_at`

// Create создаёт task. Неизвестный user_id даёт ErrInvalidReference.
func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (title, description, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, task.Title, task.Description, task.UserID).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", translate(err))
	}
	return nil
}

// GetByID возвращает task по ID.
func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	task, err := pgx.CollectExactlyOneRow(rows, scanTask)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return &task, nil
}

// List возвращает tasks, опционально только одного пользователя.
func (r *TaskRepo) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	page := filter.Page.normalize(MaxPageSize)
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE ($1::bigint IS NULL OR user_id = $1)
		ORDER BY id
		OFFSET $2 LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return pgx.CollectRows(rows, scanTask)
}

// Update обновляет task.
func (r *TaskRepo) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, user_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, task.ID, task.Title, task.Description, task.UserID).Scan(&task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update task: %w", translate(err))
	}
	return nil
}

// Delete удаляет task.
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(row pgx.CollectableRow) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, fmt.Errorf("scan task: %w", err)
	}
	return t, nil
}
