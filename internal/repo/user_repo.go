package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Triage/internal/domain"
)

// MaxPageSize: максимальный размер страницы для списков.
const MaxPageSize = 100

// UserRepo: репозиторий для работы с users и profiles.
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo создаёт новый UserRepo.
func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// --- User CRUD ---

// Create создаёт пользователя и заполняет ID и CreatedAt.
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, user.Username, user.Email).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

// GetByID возвращает пользователя по ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

// List возвращает страницу пользователей в порядке создания.
func (r *UserRepo) List(ctx context.Context, page Page) ([]domain.User, error) {
	page = page.normalize(MaxPageSize)
	query := `
		SELECT id, username, email, created_at
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// ListByWorkspace возвращает участников workspace.
func (r *UserRepo) ListByWorkspace(ctx context.Context, workspaceID int64) ([]domain.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.created_at
		FROM users u
		JOIN user_workspace uw ON uw.user_id = u.id
		WHERE uw.workspace_id = $1
		ORDER BY u.id
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace members: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Update обновляет username и email.
func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.Email)
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет пользователя (каскадно удалит profile и членство в workspaces).
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Profile ---

// GetProfile возвращает профиль пользователя.
func (r *UserRepo) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	query := `
		SELECT id, user_id, bio, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.ID, &p.UserID, &p.Bio, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile создаёт или обновляет профиль пользователя.
// Для несуществующего пользователя возвращает ErrNotFound.
func (r *UserRepo) UpsertProfile(ctx context.Context, userID int64, bio string) (*domain.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, bio, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET bio = EXCLUDED.bio, updated_at = NOW()
		RETURNING id, user_id, bio, updated_at
	`
	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID, bio).Scan(&p.ID, &p.UserID, &p.Bio, &p.UpdatedAt)
	if err != nil {
		return nil, upsertProfileError(err)
	}
	return &p, nil
}

// upsertProfileError: нарушение внешнего ключа на user_id означает,
// что пользователя нет.
func upsertProfileError(err error) error {
	err = translate(err)
	if errors.Is(err, ErrInvalidReference) {
		return ErrNotFound
	}
	return fmt.Errorf("upsert profile: %w", err)
}

// --- Helpers ---

func scanUser(row pgx.CollectableRow) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return u, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
