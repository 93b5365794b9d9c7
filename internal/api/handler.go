package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/repo"
)

// UserStore: хранилище пользователей и профилей.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, page repo.Page) ([]domain.User, error)
	ListByWorkspace(ctx context.Context, workspaceID int64) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	GetProfile(ctx context.Context, userID int64) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, userID int64, bio string) (*domain.Profile, error)
}

// TaskStore: хранилище tasks.
type TaskStore interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, filter repo.TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int64) error
}

// WorkspaceStore: хранилище workspaces и членства.
type WorkspaceStore interface {
	Create(ctx context.Context, ws *domain.Workspace) error
	GetByID(ctx context.Context, id int64) (*domain.Workspace, error)
	List(ctx context.Context, page repo.Page) ([]domain.Workspace, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Workspace, error)
	Update(ctx context.Context, ws *domain.Workspace) error
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, workspaceID, userID int64) (*domain.Membership, error)
	RemoveMember(ctx context.Context, workspaceID, userID int64) error
}

// WorkStore: хранилище works.
type WorkStore interface {
	Create(ctx context.Context, work *domain.Work) error
	GetByID(ctx context.Context, id int64) (*domain.Work, error)
	List(ctx context.Context, page repo.Page) ([]domain.Work, error)
	Update(ctx context.Context, work *domain.Work) error
	Delete(ctx context.Context, id int64) error
}

// JobStore: хранилище заданий на триаж.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	FindActive(ctx context.Context, repo string, issueNumber int) (*domain.Job, error)
	List(ctx context.Context, filter repo.JobFilter) ([]domain.Job, error)
	Update(ctx context.Context, job *domain.Job) error
}

// JobPublisher уведомляет воркеров о новых заданиях.
type JobPublisher interface {
	PublishJobPending(ctx context.Context, jobID uuid.UUID) error
}

// Handler: главный обработчик API с зависимостями.
type Handler struct {
	users      UserStore
	tasks      TaskStore
	workspaces WorkspaceStore
	works      WorkStore
	jobs       JobStore
	publisher  JobPublisher
	apiToken   string
	logger     *slog.Logger
}

// Config: конфигурация для создания Handler.
type Config struct {
	Users      UserStore
	Tasks      TaskStore
	Workspaces WorkspaceStore
	Works      WorkStore
	Jobs       JobStore

	// Publisher может быть nil: задания тогда подхватит poll loop воркера.
	Publisher JobPublisher

	// APIToken: если задан, /api/v1 требует Authorization: Bearer <token>.
	APIToken string

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:      cfg.Users,
		tasks:      cfg.Tasks,
		workspaces: cfg.Workspaces,
		works:      cfg.Works,
		jobs:       cfg.Jobs,
		publisher:  cfg.Publisher,
		apiToken:   cfg.APIToken,
		logger:     logger,
	}
}
