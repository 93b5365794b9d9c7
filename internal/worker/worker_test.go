package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/llm"
	"github.com/shaiso/Triage/internal/mq"
	"github.com/shaiso/Triage/internal/repo"
	"github.com/shaiso/Triage/internal/tracker"
	"github.com/shaiso/Triage/internal/triage"
)

// --- Fakes ---

type memJobs struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*domain.Job
	updates int
}

func newMemJobs(jobs ...*domain.Job) *memJobs {
	m := &memJobs{jobs: map[uuid.UUID]*domain.Job{}}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *memJobs) Claim(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if job.Status != domain.JobStatusPending {
		return nil, repo.ErrInvalidState
	}
	job.MarkRunning()
	cp := *job
	return &cp, nil
}

func (m *memJobs) Update(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *job
	m.jobs[job.ID] = &cp
	m.updates++
	return nil
}

func (m *memJobs) ListPending(_ context.Context, limit int) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Job
	for _, j := range m.jobs {
		if j.Status == domain.JobStatusPending && len(out) < limit {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *memJobs) get(id uuid.UUID) domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobs[id]
}

// scriptedRunner возвращает ошибки из errs по очереди, затем result.
type scriptedRunner struct {
	mu     sync.Mutex
	errs   []error
	result *triage.Result
	calls  int
	refs   []domain.IssueRef
	opts   []triage.Options
}

func (r *scriptedRunner) Run(_ context.Context, ref domain.IssueRef, opts triage.Options) (*triage.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.refs = append(r.refs, ref)
	r.opts = append(r.opts, opts)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if errors.Is(err, triage.ErrNoCorrectedText) {
			return r.result, err
		}
		return nil, err
	}
	return r.result, nil
}

func newTestJob() *domain.Job {
	ref := domain.IssueRef{Owner: "octo", Repo: "hello", Number: 42}
	return domain.NewJob(ref, true, domain.JobSourceAPI)
}

func newTestWorker(jobs JobStore, runner Runner) *Worker {
	return New(Config{
		Jobs:   jobs,
		Runner: runner,
		Retry: RetryPolicy{
			MaxAttempts:  3,
			Backoff:      BackoffFixed,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

var okResult = &triage.Result{Labels: []string{"bug"}, TitleUpdated: true, BodyUpdated: true}

// --- ProcessJob Tests ---

func TestProcessJob_Success(t *testing.T) {
	job := newTestJob()
	jobs := newMemJobs(job)
	runner := &scriptedRunner{result: okResult}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	got := jobs.get(job.ID)
	if got.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s", got.Status)
	}
	if diff := cmp.Diff([]string{"bug"}, got.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if !got.TitleUpdated || !got.BodyUpdated || got.Attempt != 1 {
		t.Errorf("unexpected job state: %+v", got)
	}

	wantRef := domain.IssueRef{Owner: "octo", Repo: "hello", Number: 42}
	if runner.refs[0] != wantRef || !runner.opts[0].FixTyposComment {
		t.Errorf("runner called with %v %+v", runner.refs[0], runner.opts[0])
	}
}

func TestProcessJob_NoCorrectedTextIsSuccess(t *testing.T) {
	job := newTestJob()
	jobs := newMemJobs(job)
	runner := &scriptedRunner{
		errs:   []error{triage.ErrNoCorrectedText},
		result: &triage.Result{Labels: []string{"triage"}, DefaultLabel: true},
	}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	got := jobs.get(job.ID)
	if got.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s", got.Status)
	}
	if runner.calls != 1 {
		t.Errorf("expected 1 call, got %d", runner.calls)
	}
}

func TestProcessJob_RetriesTransientErrors(t *testing.T) {
	job := newTestJob()
	jobs := newMemJobs(job)
	transient := &tracker.APIError{Op: "get issue", StatusCode: 502, Message: "bad gateway"}
	runner := &scriptedRunner{
		errs:   []error{transient, transient},
		result: okResult,
	}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	got := jobs.get(job.ID)
	if got.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", got.Status, got.Error)
	}
	if got.Attempt != 3 || runner.calls != 3 {
		t.Errorf("expected 3 attempts, got attempt=%d calls=%d", got.Attempt, runner.calls)
	}
}

func TestProcessJob_RetryExhausted(t *testing.T) {
	job := newTestJob()
	jobs := newMemJobs(job)
	rateLimited := errors.Join(triage.ErrCompletion, llm.ErrRateLimited)
	runner := &scriptedRunner{errs: []error{rateLimited, rateLimited, rateLimited, rateLimited}}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	got := jobs.get(job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if runner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", runner.calls)
	}
	if got.Error == "" || got.FinishedAt == nil {
		t.Errorf("failed job should carry error and finish time: %+v", got)
	}
}

func TestProcessJob_PermanentErrorNotRetried(t *testing.T) {
	job := newTestJob()
	jobs := newMemJobs(job)
	runner := &scriptedRunner{errs: []error{tracker.ErrNotFound}}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if got := jobs.get(job.ID); got.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if runner.calls != 1 {
		t.Errorf("expected 1 call, got %d", runner.calls)
	}
}

func TestProcessJob_InvalidRepoFails(t *testing.T) {
	job := newTestJob()
	job.Repo = "not-a-repo"
	jobs := newMemJobs(job)
	runner := &scriptedRunner{result: okResult}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if got := jobs.get(job.ID); got.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if runner.calls != 0 {
		t.Error("runner must not be called for invalid repo")
	}
}

func TestProcessJob_SkipsUnknownAndNonPending(t *testing.T) {
	job := newTestJob()
	job.Status = domain.JobStatusSucceeded
	jobs := newMemJobs(job)
	runner := &scriptedRunner{result: okResult}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(context.Background(), job.ID); !errors.Is(err, ErrJobNotPending) {
		t.Errorf("expected ErrJobNotPending, got %v", err)
	}
	if err := w.ProcessJob(context.Background(), uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if runner.calls != 0 {
		t.Errorf("runner should not be called, got %d calls", runner.calls)
	}
}

func TestProcessJob_CanceledContextReleasesJob(t *testing.T) {
	job := newTestJob()
	jobs := newMemJobs(job)
	ctx, cancel := context.WithCancel(context.Background())
	runner := &cancelingRunner{cancel: cancel}
	w := newTestWorker(jobs, runner)

	if err := w.ProcessJob(ctx, job.ID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := jobs.get(job.ID); got.Status != domain.JobStatusPending {
		t.Errorf("expected job back in PENDING, got %s", got.Status)
	}
}

type cancelingRunner struct {
	cancel context.CancelFunc
}

func (r *cancelingRunner) Run(ctx context.Context, _ domain.IssueRef, _ triage.Options) (*triage.Result, error) {
	r.cancel()
	return nil, ctx.Err()
}

// --- Message handler Tests ---

func TestHandleJobPending(t *testing.T) {
	job := newTestJob()
	jobs := newMemJobs(job)
	w := newTestWorker(jobs, &scriptedRunner{result: okResult})

	msg := mq.NewMessage(mq.MessageTypeJobPending, mq.JobPendingPayload{JobID: job.ID})
	if err := w.handleJobPending(context.Background(), msg); err != nil {
		t.Fatalf("handleJobPending: %v", err)
	}
	if got := jobs.get(job.ID); got.Status != domain.JobStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", got.Status)
	}

	// Повторная доставка: ack без ошибки
	if err := w.handleJobPending(context.Background(), msg); err != nil {
		t.Errorf("redelivery should be acked, got %v", err)
	}
}

func TestHandleJobPending_BadPayloadIsPermanent(t *testing.T) {
	w := newTestWorker(newMemJobs(), &scriptedRunner{})

	msg := &mq.Message{Type: mq.MessageTypeJobPending, Payload: json.RawMessage(`{"job_id": "nope"}`)}
	if err := w.handleJobPending(context.Background(), msg); !errors.Is(err, mq.ErrPermanent) {
		t.Errorf("expected ErrPermanent, got %v", err)
	}

	empty := mq.NewMessage(mq.MessageTypeJobPending, map[string]any{})
	if err := w.handleJobPending(context.Background(), empty); !errors.Is(err, mq.ErrPermanent) {
		t.Errorf("expected ErrPermanent for empty job_id, got %v", err)
	}
}

// --- Poll Tests ---

func TestPoll_ProcessesPendingJobs(t *testing.T) {
	first, second := newTestJob(), newTestJob()
	jobs := newMemJobs(first, second)
	runner := &scriptedRunner{result: okResult}
	w := newTestWorker(jobs, runner)

	w.poll(context.Background())

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		if got := jobs.get(id); got.Status != domain.JobStatusSucceeded {
			t.Errorf("job %s: expected SUCCEEDED, got %s", id, got.Status)
		}
	}
	if runner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", runner.calls)
	}
}

// --- Backoff Tests ---

func TestCalculateBackoff_Exponential(t *testing.T) {
	policy := RetryPolicy{
		Backoff:      BackoffExponential,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped at max
		{6, 10 * time.Second}, // stays at max
	}

	for _, tt := range tests {
		got := calculateBackoff(tt.attempt, policy)
		if got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestCalculateBackoff_Fixed(t *testing.T) {
	policy := RetryPolicy{
		Backoff:      BackoffFixed,
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
	}

	// Все попытки: одинаковая задержка
	for attempt := 1; attempt <= 5; attempt++ {
		got := calculateBackoff(attempt, policy)
		if got != 2*time.Second {
			t.Errorf("attempt %d: expected 2s, got %v", attempt, got)
		}
	}
}

func TestCalculateBackoff_ZeroValues(t *testing.T) {
	got := calculateBackoff(1, RetryPolicy{Backoff: BackoffExponential})
	if got != time.Second {
		t.Errorf("expected 1s default for zero InitialDelay, got %v", got)
	}
}

// --- Worker Tests ---

func TestNew_DefaultConfig(t *testing.T) {
	w := New(Config{})

	if w.pollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultPollInterval, w.pollInterval)
	}
	if w.batchSize != defaultBatchSize {
		t.Errorf("expected default batch size %d, got %d", defaultBatchSize, w.batchSize)
	}
	want := RetryPolicy{MaxAttempts: 3, Backoff: BackoffExponential, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
	if w.retry != want {
		t.Errorf("expected default retry policy %+v, got %+v", want, w.retry)
	}
}
