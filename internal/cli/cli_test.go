package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/triage"
)

// --- Client Tests ---

func TestClient_CreateJob(t *testing.T) {
	var gotBody CreateJobRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/triage/jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"abc","repo":"octo/hello","issue_number":3,"status":"PENDING","labels":[]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret")
	job, err := client.CreateJob(context.Background(), CreateJobRequest{Repo: "octo/hello", IssueNumber: 3, Source: "cli"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if diff := cmp.Diff(CreateJobRequest{Repo: "octo/hello", IssueNumber: 3, Source: "cli"}, gotBody); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
	if job.ID != "abc" || job.Status != "PENDING" {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestClient_ListJobsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("repo") != "octo/hello" || q.Get("status") != "FAILED" || q.Get("limit") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("no Authorization header expected without token")
		}
		w.Write([]byte(`{"data":[{"id":"a"},{"id":"b"}],"total":2}`))
	}))
	defer server.Close()

	jobs, err := NewClient(server.URL, "").ListJobs(context.Background(), ListJobsOpts{Repo: "octo/hello", Status: "FAILED", Limit: 5})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"user not found"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").GetUser(context.Background(), 9)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "NOT_FOUND: user not found" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestClient_APIErrorWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	err := NewClient(server.URL, "").DeleteTask(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected APIError 502, got %v", err)
	}
}

func TestClient_DeleteNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/users/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewClient(server.URL, "").DeleteUser(context.Background(), 7); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
}

// --- Command Tests ---

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	return cmd.ExecuteContext(context.Background())
}

func TestJobListCmd_Table(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"j1","repo":"octo/hello","issue_number":4,"status":"SUCCEEDED","attempt":1,"labels":["bug","ui"],"source":"api","created_at":"2026-01-01T00:00:00Z"}],"total":1}`))
	}))
	defer server.Close()

	var stdout, stderr bytes.Buffer
	cmd := NewJobCmd(
		func() *Client { return NewClient(server.URL, "") },
		func() *Output { return NewOutputTo(false, &stdout, &stderr) },
	)

	if err := execute(t, cmd, "list"); err != nil {
		t.Fatalf("job list: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"ID", "STATUS", "j1", "octo/hello", "SUCCEEDED", "bug,ui"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUserShowCmd_InvalidID(t *testing.T) {
	cmd := NewUserCmd(
		func() *Client { return NewClient("http://127.0.0.1:0", "") },
		func() *Output { return NewOutputTo(false, new(bytes.Buffer), new(bytes.Buffer)) },
	)
	if err := execute(t, cmd, "show", "abc"); err == nil || !strings.Contains(err.Error(), "invalid id") {
		t.Errorf("expected invalid id error, got %v", err)
	}
}

type fakeRunner struct {
	result *triage.Result
	err    error
	ref    domain.IssueRef
	opts   triage.Options
}

func (f *fakeRunner) Run(_ context.Context, ref domain.IssueRef, opts triage.Options) (*triage.Result, error) {
	f.ref, f.opts = ref, opts
	return f.result, f.err
}

func newIssueCmd(runner *fakeRunner, stdout *bytes.Buffer, jsonMode bool) *cobra.Command {
	return NewIssueCmd(
		func(context.Context) (IssueRunner, error) { return runner, nil },
		func() *Output { return NewOutputTo(jsonMode, stdout, new(bytes.Buffer)) },
	)
}

func TestIssueCmd_Success(t *testing.T) {
	runner := &fakeRunner{result: &triage.Result{Labels: []string{"bug"}, BodyUpdated: true, Comments: 2}}
	var stdout bytes.Buffer

	err := execute(t, newIssueCmd(runner, &stdout, true), "--repo", "octo/hello", "--issue-number", "12", "--fix-typos-comment")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	want := domain.IssueRef{Owner: "octo", Repo: "hello", Number: 12}
	if runner.ref != want || !runner.opts.FixTyposComment {
		t.Errorf("runner called with %v %+v", runner.ref, runner.opts)
	}

	var got issueResult
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if diff := cmp.Diff(issueResult{Issue: "octo/hello#12", Labels: []string{"bug"}, BodyUpdated: true, Comments: 2}, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestIssueCmd_NoCorrectedTextFails(t *testing.T) {
	runner := &fakeRunner{
		result: &triage.Result{Labels: []string{"triage"}, DefaultLabel: true},
		err:    triage.ErrNoCorrectedText,
	}
	var stdout bytes.Buffer

	err := execute(t, newIssueCmd(runner, &stdout, false), "--repo", "octo/hello", "--issue-number", "1")
	if !errors.Is(err, triage.ErrNoCorrectedText) {
		t.Fatalf("expected ErrNoCorrectedText, got %v", err)
	}
	if !strings.Contains(stdout.String(), "triage") {
		t.Errorf("applied labels should still be printed:\n%s", stdout.String())
	}
}

func TestIssueCmd_CompletionErrorFails(t *testing.T) {
	runner := &fakeRunner{err: triage.ErrCompletion}
	var stdout bytes.Buffer

	err := execute(t, newIssueCmd(runner, &stdout, false), "--repo", "octo/hello", "--issue-number", "1")
	if !errors.Is(err, triage.ErrCompletion) {
		t.Fatalf("expected ErrCompletion, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be printed on completion failure:\n%s", stdout.String())
	}
}

func TestIssueCmd_InvalidRepo(t *testing.T) {
	runner := &fakeRunner{}
	err := execute(t, newIssueCmd(runner, new(bytes.Buffer), false), "--repo", "hello", "--issue-number", "1")
	if !errors.Is(err, domain.ErrInvalidRepo) {
		t.Fatalf("expected ErrInvalidRepo, got %v", err)
	}
}
