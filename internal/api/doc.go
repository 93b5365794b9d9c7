// Package api реализует REST API triage-api.
//
// Ресурсы под /api/v1:
//   - users, users/{id}/profile, users/{id}/tasks, users/{id}/workspaces
//   - tasks, workspaces (+ members), works
//   - triage/jobs: задания на триаж issues
//
// Ответы оборачиваются в конверт {"data": ...}, списки: {"data": [...], "total": N},
// ошибки: {"error": {"code": ..., "message": ...}}.
package api
