package api

import (
	"net/http"
	"strings"

	"github.com/shaiso/Triage/internal/domain"
)

// ListWorkspaces возвращает страницу workspaces.
// GET /api/v1/workspaces
func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	workspaces, err := h.workspaces.List(r.Context(), page)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(workspaces, WorkspaceFromDomain), len(workspaces))
}

// CreateWorkspace создаёт workspace.
// POST /api/v1/workspaces
func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(w, "name is required")
		return
	}

	ws := &domain.Workspace{Name: name}
	if err := h.workspaces.Create(r.Context(), ws); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	Created(w, WorkspaceFromDomain(*ws))
}

// GetWorkspace возвращает workspace по ID.
// GET /api/v1/workspaces/{id}
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}
	Success(w, WorkspaceFromDomain(*ws))
}

// UpdateWorkspace переименовывает workspace.
// PUT /api/v1/workspaces/{id}
func (h *Handler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		ws.Name = name
	}

	if err := h.workspaces.Update(r.Context(), ws); err != nil {
		HandleRepoError(w, h.logger, err, "workspace not found")
		return
	}

	Success(w, WorkspaceFromDomain(*ws))
}

// DeleteWorkspace удаляет workspace.
// DELETE /api/v1/workspaces/{id}
func (h *Handler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid workspace id")
		return
	}

	if err := h.workspaces.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "workspace not found")
		return
	}

	NoContent(w)
}

// --- Members ---

// ListMembers возвращает участников workspace.
// GET /api/v1/workspaces/{id}/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	users, err := h.users.ListByWorkspace(r.Context(), ws.ID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(users, UserFromDomain), len(users))
}

// AddMember добавляет пользователя в workspace.
// POST /api/v1/workspaces/{id}/members
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.UserID <= 0 {
		BadRequest(w, "user_id is required")
		return
	}

	ws, ok := h.loadWorkspace(w, r)
	if !ok {
		return
	}

	m, err := h.workspaces.AddMember(r.Context(), ws.ID, req.UserID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	Created(w, MembershipResponse{
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		JoinedAt:    m.JoinedAt,
	})
}

// RemoveMember удаляет пользователя из workspace.
// DELETE /api/v1/workspaces/{id}/members/{user_id}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	wsID, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid workspace id")
		return
	}
	userID, ok := pathID(r, "user_id")
	if !ok {
		BadRequest(w, "invalid user id")
		return
	}

	if err := h.workspaces.RemoveMember(r.Context(), wsID, userID); err != nil {
		HandleRepoError(w, h.logger, err, "membership not found")
		return
	}

	NoContent(w)
}

func (h *Handler) loadWorkspace(w http.ResponseWriter, r *http.Request) (*domain.Workspace, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid workspace id")
		return nil, false
	}

	ws, err := h.workspaces.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workspace not found") {
		return nil, false
	}
	return ws, true
}
