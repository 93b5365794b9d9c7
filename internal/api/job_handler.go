package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/repo"
	"github.com/shaiso/Triage/internal/telemetry"
)

// ListJobs возвращает задания на триаж.
// GET /api/v1/triage/jobs?repo=&status=&limit=&offset=
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	filter := repo.JobFilter{
		Repo:   q.Get("repo"),
		Status: domain.JobStatus(q.Get("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		BadRequest(w, "invalid status")
		return
	}

	jobs, err := h.jobs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, mapSlice(jobs, JobFromDomain), len(jobs))
}

// CreateJob ставит issue в очередь на триаж.
// Если для того же issue уже есть незавершённое задание, возвращает его (200).
// POST /api/v1/triage/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	ref, err := domain.NewIssueRef(req.Repo, req.IssueNumber)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	source := req.Source
	switch source {
	case "":
		source = domain.JobSourceAPI
	case domain.JobSourceAPI, domain.JobSourceCLI:
	default:
		BadRequest(w, "source must be api or cli")
		return
	}

	active, err := h.jobs.FindActive(r.Context(), ref.FullRepo(), ref.Number)
	switch {
	case err == nil:
		Success(w, JobFromDomain(*active))
		return
	case !errors.Is(err, repo.ErrNotFound):
		InternalError(w, h.logger, err)
		return
	}

	job := domain.NewJob(ref, req.FixTyposComment, source)
	if err := h.jobs.Create(r.Context(), job); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			// Параллельный запрос создал задание между FindActive и Create
			if active, findErr := h.jobs.FindActive(r.Context(), ref.FullRepo(), ref.Number); findErr == nil {
				Success(w, JobFromDomain(*active))
				return
			}
		}
		HandleRepoError(w, h.logger, err, "")
		return
	}
	telemetry.JobsEnqueued.WithLabelValues(string(source)).Inc()

	h.publishPending(r.Context(), job)

	Created(w, JobFromDomain(*job))
}

// GetJob возвращает задание по ID.
// GET /api/v1/triage/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	Success(w, JobFromDomain(*job))
}

// RetryJob перезапускает упавшее задание с обнулённым счётчиком попыток.
// POST /api/v1/triage/jobs/{id}/retry
func (h *Handler) RetryJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	if job.Status != domain.JobStatusFailed {
		InvalidState(w, "only failed jobs can be retried, current status: "+string(job.Status))
		return
	}

	job.ResetForRetry()
	job.Attempt = 0
	if err := h.jobs.Update(r.Context(), job); err != nil {
		HandleRepoError(w, h.logger, err, "job not found")
		return
	}

	h.publishPending(r.Context(), job)

	Success(w, JobFromDomain(*job))
}

// publishPending отправляет job.pending. Ошибка публикации не фатальна:
// задание остаётся PENDING и его заберёт poll loop воркера.
func (h *Handler) publishPending(ctx context.Context, job *domain.Job) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishJobPending(ctx, job.ID); err != nil {
		h.logger.Warn("failed to publish job.pending, worker poll loop will pick it up",
			"job_id", job.ID,
			"error", err,
		)
		return
	}
	h.logger.Debug("job queued",
		"job_id", job.ID,
		"issue", job.Repo+"#"+strconv.Itoa(job.IssueNumber),
	)
}
