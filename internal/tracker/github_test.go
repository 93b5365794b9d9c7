package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shaiso/Triage/internal/domain"
)

func newTestGitHub(t *testing.T, mux *http.ServeMux) *GitHub {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	gh, err := NewGitHub(GitHubConfig{
		Token:   "test-token",
		BaseURL: server.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewGitHub: %v", err)
	}
	return gh
}

var testRef = domain.IssueRef{Owner: "octo", Repo: "hello", Number: 7}

func TestGitHub_GetIssue_WithPaginatedComments(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string

	mux.HandleFunc("GET /repos/octo/hello/issues/7", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"number": 7,
			"title":  "Crash on start",
			"body":   "it crashs",
			"state":  "open",
			"labels": []map[string]any{{"name": "bug"}},
		})
	})
	mux.HandleFunc("GET /repos/octo/hello/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			json.NewEncoder(w).Encode([]map[string]any{{"body": "third"}})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/issues/7/comments?page=2>; rel="next"`, serverURL))
		json.NewEncoder(w).Encode([]map[string]any{{"body": "first"}, {"body": "second"}})
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	gh, err := NewGitHub(GitHubConfig{Token: "test-token", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGitHub: %v", err)
	}

	issue, err := gh.GetIssue(context.Background(), testRef)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}

	want := &domain.Issue{
		Ref:      testRef,
		Title:    "Crash on start",
		Body:     "it crashs",
		Comments: []string{"first", "second", "third"},
		Labels:   []string{"bug"},
		State:    "open",
	}
	if diff := cmp.Diff(want, issue); diff != "" {
		t.Errorf("issue mismatch (-want +got):\n%s", diff)
	}
}

func TestGitHub_GetLabel_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello/labels/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})
	gh := newTestGitHub(t, mux)

	_, err := gh.GetLabel(context.Background(), "octo", "hello", "ui")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("404 must not be retryable")
	}
}

func TestGitHub_GetLabel_EscapesName(t *testing.T) {
	tests := []string{"needs info?", "50%-done", "area#ui", "ui/ux"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			var gotPath, gotQuery string
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repos/octo/hello/labels/", func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				json.NewEncoder(w).Encode(map[string]any{"name": name, "color": "ededed"})
			})
			gh := newTestGitHub(t, mux)

			label, err := gh.GetLabel(context.Background(), "octo", "hello", name)
			if err != nil {
				t.Fatalf("GetLabel: %v", err)
			}
			if want := "/repos/octo/hello/labels/" + name; gotPath != want {
				t.Errorf("path = %q, want %q", gotPath, want)
			}
			if gotQuery != "" {
				t.Errorf("query = %q, want empty", gotQuery)
			}
			if label.Name != name {
				t.Errorf("label name = %q, want %q", label.Name, name)
			}
		})
	}
}

func TestGitHub_CreateLabelAndAddLabels(t *testing.T) {
	mux := http.NewServeMux()
	var created map[string]string
	var added []string

	mux.HandleFunc("POST /repos/octo/hello/labels", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&created)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	})
	mux.HandleFunc("POST /repos/octo/hello/issues/7/labels", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&added)
		json.NewEncoder(w).Encode([]map[string]any{})
	})
	gh := newTestGitHub(t, mux)

	label, err := gh.CreateLabel(context.Background(), "octo", "hello", Label{Name: "ui", Color: "A1B2C3"})
	if err != nil {
		t.Fatalf("CreateLabel: %v", err)
	}
	if label.Name != "ui" || created["color"] != "A1B2C3" {
		t.Errorf("unexpected label: %+v, request: %v", label, created)
	}

	if err := gh.AddLabels(context.Background(), testRef, []string{"ui", "bug"}); err != nil {
		t.Fatalf("AddLabels: %v", err)
	}
	if diff := cmp.Diff([]string{"ui", "bug"}, added); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestGitHub_EditIssue_OnlySetFields(t *testing.T) {
	mux := http.NewServeMux()
	var body map[string]any
	mux.HandleFunc("PATCH /repos/octo/hello/issues/7", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"number": 7})
	})
	gh := newTestGitHub(t, mux)

	newBody := "fixed text"
	if err := gh.EditIssue(context.Background(), testRef, IssueEdit{Body: &newBody}); err != nil {
		t.Fatalf("EditIssue: %v", err)
	}
	if _, ok := body["title"]; ok {
		t.Errorf("title must not be sent, got %v", body)
	}
	if body["body"] != "fixed text" {
		t.Errorf("body = %v", body["body"])
	}
}

func TestGitHub_ListUntriagedIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "open" {
			t.Errorf("state = %q", r.URL.Query().Get("state"))
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"number": 3, "title": "labeled", "labels": []map[string]any{{"name": "bug"}}},
			{"number": 4, "title": "pr", "pull_request": map[string]any{"url": "x"}},
			{"number": 5, "title": "fresh"},
			{"number": 6, "title": "fresh too"},
		})
	})
	gh := newTestGitHub(t, mux)

	issues, err := gh.ListUntriagedIssues(context.Background(), "octo", "hello", 1)
	if err != nil {
		t.Fatalf("ListUntriagedIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].Ref.Number != 5 {
		t.Errorf("expected only issue #5, got %+v", issues)
	}
}

func TestGitHub_ServerErrorIsRetryable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/octo/hello/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"bad gateway"}`))
	})
	gh := newTestGitHub(t, mux)

	err := gh.CreateComment(context.Background(), testRef, "hi")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected APIError 502, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("502 should be retryable")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&APIError{StatusCode: 429}, true},
		{&APIError{StatusCode: 500}, true},
		{&APIError{StatusCode: 422}, false},
		{fmt.Errorf("wrapped: %w", &APIError{StatusCode: 404}), false},
		{errors.New("connection reset"), true},
		{context.Canceled, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
