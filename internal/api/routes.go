package api

import (
	"net/http"
	"time"

	"github.com/shaiso/Triage/internal/telemetry"
)

// Router возвращает корневой http.Handler: маршруты API, /healthz и /metrics под CORS.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	telemetry.RegisterHealth(mux, time.Now())
	h.RegisterRoutes(mux)
	return CORS(mux)
}

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	public := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
	)
	chain := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
		Auth(h.apiToken),
	)
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, chain(fn))
	}

	mux.Handle("GET /{$}", public(http.HandlerFunc(h.Root)))

	// Users
	route("GET /api/v1/users", h.ListUsers)
	route("POST /api/v1/users", h.CreateUser)
	route("GET /api/v1/users/{id}", h.GetUser)
	route("PUT /api/v1/users/{id}", h.UpdateUser)
	route("DELETE /api/v1/users/{id}", h.DeleteUser)

	// Profile
	route("GET /api/v1/users/{id}/profile", h.GetProfile)
	route("PUT /api/v1/users/{id}/profile", h.UpsertProfile)

	route("GET /api/v1/users/{id}/tasks", h.ListUserTasks)
	route("GET /api/v1/users/{id}/workspaces", h.ListUserWorkspaces)

	// Tasks
	route("GET /api/v1/tasks", h.ListTasks)
	route("POST /api/v1/tasks", h.CreateTask)
	route("GET /api/v1/tasks/{id}", h.GetTask)
	route("PUT /api/v1/tasks/{id}", h.UpdateTask)
	route("DELETE /api/v1/tasks/{id}", h.DeleteTask)

	// Workspaces
	route("GET /api/v1/workspaces", h.ListWorkspaces)
	route("POST /api/v1/workspaces", h.CreateWorkspace)
	route("GET /api/v1/workspaces/{id}", h.GetWorkspace)
	route("PUT /api/v1/workspaces/{id}", h.UpdateWorkspace)
	route("DELETE /api/v1/workspaces/{id}", h.DeleteWorkspace)
	route("GET /api/v1/workspaces/{id}/members", h.ListMembers)
	route("POST /api/v1/workspaces/{id}/members", h.AddMember)
	route("DELETE /api/v1/workspaces/{id}/members/{user_id}", h.RemoveMember)

	// Works
	route("GET /api/v1/works", h.ListWorks)
	route("POST /api/v1/works", h.CreateWork)
	route("GET /api/v1/works/{id}", h.GetWork)
	route("PUT /api/v1/works/{id}", h.UpdateWork)
	route("DELETE /api/v1/works/{id}", h.DeleteWork)

	// Triage jobs
	route("GET /api/v1/triage/jobs", h.ListJobs)
	route("POST /api/v1/triage/jobs", h.CreateJob)
	route("GET /api/v1/triage/jobs/{id}", h.GetJob)
	route("POST /api/v1/triage/jobs/{id}/retry", h.RetryJob)
}

// Root: приветствие на /.
// GET /
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"Hello": "World"})
}
