package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Triage/internal/domain"
)

// WorkRepo: репозиторий для работы с works.
type WorkRepo struct {
	pool *pgxpool.Pool
}

// NewWorkRepo создаёт новый WorkRepo.
func NewWorkRepo(pool *pgxpool.Pool) *WorkRepo {
	return &WorkRepo{pool: pool}
}

const workColumns = `id, title, description, status, user_id, created_at, updated_at`

// Create создаёт work.
func (r *WorkRepo) Create(ctx context.Context, work *domain.Work) error {
	query := `
		INSERT INTO works (title, description, status, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, work.Title, work.Description, work.Status, work.UserID).
		Scan(&work.ID, &work.CreatedAt, &work.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert work: %w", translate(err))
	}
	return nil
}

// GetByID возвращает work по ID.
func (r *WorkRepo) GetByID(ctx context.Context, id int64) (*domain.Work, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+workColumns+` FROM works WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get work by id: %w", err)
	}
	work, err := pgx.CollectExactlyOneRow(rows, scanWork)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work by id: %w", err)
	}
	return &work, nil
}

// List возвращает страницу works.
func (r *WorkRepo) List(ctx context.Context, page Page) ([]domain.Work, error) {
	page = page.normalize(MaxPageSize)
	query := `SELECT ` + workColumns + ` FROM works ORDER BY id OFFSET $1 LIMIT $2`
	rows, err := r.pool.Query(ctx, query, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	return pgx.CollectRows(rows, scanWork)
}

// Update обновляет work.
func (r *WorkRepo) Update(ctx context.Context, work *domain.Work) error {
	query := `
		UPDATE works
		SET title = $2, description = $3, status = $4, user_id = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, work.ID, work.Title, work.Description, work.Status, work.UserID).
		Scan(&work.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update work: %w", translate(err))
	}
	return nil
}

// Delete удаляет work.
func (r *WorkRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete work: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWork(row pgx.CollectableRow) (domain.Work, error) {
	var w domain.Work
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Status, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return w, fmt.Errorf("scan work: %w", err)
	}
	return w, nil
}
