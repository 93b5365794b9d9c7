package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/repo"
)

// ListTasks возвращает tasks.
// GET /api/v1/tasks?user_id=&skip=&limit=
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	filter := repo.TaskFilter{Page: page}
	if v := r.URL.Query().Get("user_id"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(w, "invalid user_id")
			return
		}
		filter.UserID = &userID
	}

	tasks, err := h.tasks.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(tasks, TaskFromDomain), len(tasks))
}

// CreateTask создаёт task.
// POST /api/v1/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		BadRequest(w, "title is required")
		return
	}

	task := &domain.Task{
		Title:       req.Title,
		Description: req.Description,
		UserID:      req.UserID,
	}
	if err := h.tasks.Create(r.Context(), task); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	Created(w, TaskFromDomain(*task))
}

// GetTask возвращает task по ID.
// GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid task id")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "task not found") {
		return
	}

	Success(w, TaskFromDomain(*task))
}

// UpdateTask частично обновляет task.
// PUT /api/v1/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid task id")
		return
	}

	var req UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "task not found") {
		return
	}

	if v := strings.TrimSpace(req.Title); v != "" {
		task.Title = v
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.UserID != nil {
		task.UserID = req.UserID
	}

	if err := h.tasks.Update(r.Context(), task); err != nil {
		HandleRepoError(w, h.logger, err, "task not found")
		return
	}

	Success(w, TaskFromDomain(*task))
}

// DeleteTask удаляет task.
// DELETE /api/v1/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid task id")
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "task not found")
		return
	}

	NoContent(w)
}
