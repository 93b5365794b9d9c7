package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Triage/internal/domain"
)

// WorkspaceRepo: репозиторий для работы с workspaces и user_workspace.
type WorkspaceRepo struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepo создаёт новый WorkspaceRepo.
func NewWorkspaceRepo(pool *pgxpool.Pool) *WorkspaceRepo {
	return &WorkspaceRepo{pool: pool}
}

// --- Workspace CRUD ---

// Create создаёт workspace. Имя уникально.
func (r *WorkspaceRepo) Create(ctx context.Context, ws *domain.Workspace) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO workspaces (name) VALUES ($1) RETURNING id, created_at`,
		ws.Name,
	).Scan(&ws.ID, &ws.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert workspace: %w", translate(err))
	}
	return nil
}

// GetByID возвращает workspace по ID.
func (r *WorkspaceRepo) GetByID(ctx context.Context, id int64) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM workspaces WHERE id = $1`, id,
	).Scan(&ws.ID, &ws.Name, &ws.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workspace by id: %w", err)
	}
	return &ws, nil
}

// List возвращает страницу workspaces.
func (r *WorkspaceRepo) List(ctx context.Context, page Page) ([]domain.Workspace, error) {
	page = page.normalize(MaxPageSize)
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM workspaces ORDER BY id OFFSET $1 LIMIT $2`,
		page.Offset, page.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return pgx.CollectRows(rows, scanWorkspace)
}

// ListByUser возвращает workspaces, в которых состоит пользователь.
func (r *WorkspaceRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Workspace, error) {
	query := `
		SELECT w.id, w.name, w.created_at
		FROM workspaces w
		JOIN user_workspace uw ON uw.workspace_id = w.id
		WHERE uw.user_id = $1
		ORDER BY w.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user workspaces: %w", err)
	}
	return pgx.CollectRows(rows, scanWorkspace)
}

// Update переименовывает workspace.
func (r *WorkspaceRepo) Update(ctx context.Context, ws *domain.Workspace) error {
	result, err := r.pool.Exec(ctx, `UPDATE workspaces SET name = $2 WHERE id = $1`, ws.ID, ws.Name)
	if err != nil {
		return fmt.Errorf("update workspace: %w", translate(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет workspace (каскадно удалит членство).
func (r *WorkspaceRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Members ---

// AddMember добавляет пользователя в workspace.
// Повторное добавление: ErrAlreadyExists, неизвестный user/workspace: ErrInvalidReference.
func (r *WorkspaceRepo) AddMember(ctx context.Context, workspaceID, userID int64) (*domain.Membership, error) {
	m := domain.Membership{WorkspaceID: workspaceID, UserID: userID}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_workspace (user_id, workspace_id)
		VALUES ($1, $2)
		RETURNING joined_at
	`, userID, workspaceID).Scan(&m.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", translate(err))
	}
	return &m, nil
}

// RemoveMember удаляет пользователя из workspace.
func (r *WorkspaceRepo) RemoveMember(ctx context.Context, workspaceID, userID int64) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM user_workspace WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWorkspace(row pgx.CollectableRow) (domain.Workspace, error) {
	var ws domain.Workspace
	if err := row.Scan(&ws.ID, &ws.Name, &ws.CreatedAt); err != nil {
		return ws, fmt.Errorf("scan workspace: %w", err)
	}
	return ws, nil
}
