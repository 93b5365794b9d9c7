package api

import (
	"net/http"
	"strings"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/repo"
)

// ListUsers возвращает страницу пользователей.
// GET /api/v1/users?skip=0&limit=100
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	users, err := h.users.List(r.Context(), page)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(users, UserFromDomain), len(users))
}

// CreateUser создаёт пользователя.
// POST /api/v1/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		BadRequest(w, "username is required")
		return
	}
	if req.Email == "" {
		BadRequest(w, "email is required")
		return
	}

	user := &domain.User{Username: req.Username, Email: req.Email}
	if err := h.users.Create(r.Context(), user); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	Created(w, UserFromDomain(*user))
}

// GetUser возвращает пользователя по ID.
// GET /api/v1/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	Success(w, UserFromDomain(*user))
}

// UpdateUser частично обновляет пользователя.
// PUT /api/v1/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	if v := strings.TrimSpace(req.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(req.Email); v != "" {
		user.Email = v
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		HandleRepoError(w, h.logger, err, "user not found")
		return
	}

	Success(w, UserFromDomain(*user))
}

// DeleteUser удаляет пользователя.
// DELETE /api/v1/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "user not found")
		return
	}

	NoContent(w)
}

// --- Profile ---

// GetProfile возвращает профиль пользователя.
// GET /api/v1/users/{id}/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(r.Context(), user.ID)
	if HandleRepoError(w, h.logger, err, "profile not found") {
		return
	}

	Success(w, ProfileFromDomain(*profile))
}

// UpsertProfile создаёт или обновляет профиль пользователя.
// PUT /api/v1/users/{id}/profile
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid user id")
		return
	}

	var req UpsertProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	profile, err := h.users.UpsertProfile(r.Context(), id, req.Bio)
	if HandleRepoError(w, h.logger, err, "user not found") {
		return
	}

	Success(w, ProfileFromDomain(*profile))
}

// --- Nested ---

// ListUserTasks возвращает tasks пользователя.
// GET /api/v1/users/{id}/tasks
func (h *Handler) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	tasks, err := h.tasks.List(r.Context(), repo.TaskFilter{UserID: &user.ID, Page: page})
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(tasks, TaskFromDomain), len(tasks))
}

// ListUserWorkspaces возвращает workspaces, в которых состоит пользователь.
// GET /api/v1/users/{id}/workspaces
func (h *Handler) ListUserWorkspaces(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	workspaces, err := h.workspaces.ListByUser(r.Context(), user.ID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(workspaces, WorkspaceFromDomain), len(workspaces))
}

// loadUser читает {id} и загружает пользователя, отвечая 400/404 при ошибке.
func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid user id")
		return nil, false
	}

	user, err := h.users.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "user not found") {
		return nil, false
	}
	return user, true
}
