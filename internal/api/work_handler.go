package api

import (
	"net/http"
	"strings"

	"github.com/shaiso/Triage/internal/domain"
)

// ListWorks возвращает страницу works.
// GET /api/v1/works
func (h *Handler) ListWorks(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	works, err := h.works.List(r.Context(), page)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(works, WorkFromDomain), len(works))
}

// CreateWork создаёт work. Статус по умолчанию: todo.
// POST /api/v1/works
func (h *Handler) CreateWork(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		BadRequest(w, "title is required")
		return
	}
	if req.Status == "" {
		req.Status = domain.WorkStatusTodo
	}
	if !req.Status.Valid() {
		BadRequest(w, "status must be one of: todo, in_progress, done")
		return
	}

	work := &domain.Work{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		UserID:      req.UserID,
	}
	if err := h.works.Create(r.Context(), work); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	Created(w, WorkFromDomain(*work))
}

// GetWork возвращает work по ID.
// GET /api/v1/works/{id}
func (h *Handler) GetWork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid work id")
		return
	}

	work, err := h.works.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "work not found") {
		return
	}

	Success(w, WorkFromDomain(*work))
}

// UpdateWork частично обновляет work.
// PUT /api/v1/works/{id}
func (h *Handler) UpdateWork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid work id")
		return
	}

	var req UpdateWorkRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		BadRequest(w, "status must be one of: todo, in_progress, done")
		return
	}

	work, err := h.works.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "work not found") {
		return
	}

	if v := strings.TrimSpace(req.Title); v != "" {
		work.Title = v
	}
	if req.Description != "" {
		work.Description = req.Description
	}
	if req.Status != "" {
		work.Status = req.Status
	}
	if req.UserID != nil {
		work.UserID = req.UserID
	}

	if err := h.works.Update(r.Context(), work); err != nil {
		HandleRepoError(w, h.logger, err, "work not found")
		return
	}

	Success(w, WorkFromDomain(*work))
}

// DeleteWork удаляет work.
// DELETE /api/v1/works/{id}
func (h *Handler) DeleteWork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid work id")
		return
	}

	if err := h.works.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "work not found")
		return
	}

	NoContent(w)
}
