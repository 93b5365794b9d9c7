package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Triage/internal/domain"
)

// User DTOs

// CreateUserRequest: запрос на создание пользователя.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UpdateUserRequest: частичное обновление: пустые поля не меняются.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// UserResponse: ответ с пользователем.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain конвертирует domain.User в UserResponse.
func UserFromDomain(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Profile DTOs

// UpsertProfileRequest: запрос на создание или обновление профиля.
type UpsertProfileRequest struct {
	Bio string `json:"bio"`
}

// ProfileResponse: ответ с профилем.
type ProfileResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Bio       string    `json:"bio"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileFromDomain конвертирует domain.Profile в ProfileResponse.
func ProfileFromDomain(p domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Bio:       p.Bio,
		UpdatedAt: p.UpdatedAt,
	}
}

// Task DTOs

// CreateTaskRequest: запрос на создание task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	UserID      *int64 `json:"user_id,omitempty"`
}

// UpdateTaskRequest: частичное обновление task.
type UpdateTaskRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	UserID      *int64 `json:"user_id,omitempty"`
}

// TaskResponse: ответ с task.
type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      *int64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Workspace DTOs

// WorkspaceRequest: запрос на создание или переименование workspace.
type WorkspaceRequest struct {
	Name string `json:"name"`
}

// AddMemberRequest: запрос на добавление участника.
type AddMemberRequest struct {
	UserID int64 `json:"user_id"`
}

// WorkspaceResponse: ответ с workspace.
type WorkspaceResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkspaceFromDomain конвертирует domain.Workspace в WorkspaceResponse.
func WorkspaceFromDomain(ws domain.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:        ws.ID,
		Name:      ws.Name,
		CreatedAt: ws.CreatedAt,
	}
}

// MembershipResponse: ответ с участием в workspace.
type MembershipResponse struct {
	WorkspaceID int64     `json:"workspace_id"`
	UserID      int64     `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Work DTOs

// CreateWorkRequest: запрос на создание work.
type CreateWorkRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      domain.WorkStatus `json:"status,omitempty"`
	UserID      *int64            `json:"user_id,omitempty"`
}

// UpdateWorkRequest: частичное обновление work.
type UpdateWorkRequest struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      domain.WorkStatus `json:"status,omitempty"`
	UserID      *int64            `json:"user_id,omitempty"`
}

// WorkResponse: ответ с work.
type WorkResponse struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.WorkStatus `json:"status"`
	UserID      *int64            `json:"user_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// WorkFromDomain конвертирует domain.Work в WorkResponse.
func WorkFromDomain(w domain.Work) WorkResponse {
	return WorkResponse{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Status:      w.Status,
		UserID:      w.UserID,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// Job DTOs

// CreateJobRequest: запрос на триаж issue.
type CreateJobRequest struct {
	Repo            string           `json:"repo"`
	IssueNumber     int              `json:"issue_number"`
	FixTyposComment bool             `json:"fix_typos_comment,omitempty"`
	Source          domain.JobSource `json:"source,omitempty"`
}

// JobResponse: ответ с заданием.
type JobResponse struct {
	ID              uuid.UUID        `json:"id"`
	Repo            string           `json:"repo"`
	IssueNumber     int              `json:"issue_number"`
	FixTyposComment bool             `json:"fix_typos_comment"`
	Source          domain.JobSource `json:"source"`
	Status          domain.JobStatus `json:"status"`
	Attempt         int              `json:"attempt"`
	Labels          []string         `json:"labels"`
	TitleUpdated    bool             `json:"title_updated"`
	BodyUpdated     bool             `json:"body_updated"`
	Error           string           `json:"error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	labels := j.Labels
	if labels == nil {
		labels = []string{}
	}
	return JobResponse{
		ID:              j.ID,
		Repo:            j.Repo,
		IssueNumber:     j.IssueNumber,
		FixTyposComment: j.FixTyposComment,
		Source:          j.Source,
		Status:          j.Status,
		Attempt:         j.Attempt,
		Labels:          labels,
		TitleUpdated:    j.TitleUpdated,
		BodyUpdated:     j.BodyUpdated,
		Error:           j.Error,
		CreatedAt:       j.CreatedAt,
		StartedAt:       j.StartedAt,
		FinishedAt:      j.FinishedAt,
	}
}

// mapSlice конвертирует срез доменных объектов в DTO.
func mapSlice[T, R any](items []T, fn func(T) R) []R {
	result := make([]R, len(items))
	for i, item := range items {
		result[i] = fn(item)
	}
	return result
}
