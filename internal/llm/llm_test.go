package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestOpenAI(url string, jsonMode bool) *OpenAIClient {
	c := NewOpenAIClient(Config{
		Provider: ProviderGroq,
		APIKey:   "test-key",
		BaseURL:  url + "/",
		Model:    "llama3-8b-8192",
		JSONMode: jsonMode,
	})
	c.sleep = noSleep
	return c
}

func chatReply(w http.ResponseWriter, content string) {
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		chatReply(w, `  {"labels": "bug"}  `)
	}))
	defer server.Close()

	c := newTestOpenAI(server.URL, true)
	text, err := c.Complete(context.Background(), "system prompt", "issue text")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"labels": "bug"}` {
		t.Errorf("text = %q", text)
	}

	if got.Model != "llama3-8b-8192" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "issue text" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if c.Name() != ProviderGroq {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestOpenAIClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		chatReply(w, "ok")
	}))
	defer server.Close()

	text, err := newTestOpenAI(server.URL, false).Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "ok" || calls.Load() != 3 {
		t.Errorf("text = %q, calls = %d", text, calls.Load())
	}
}

func TestOpenAIClient_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestOpenAI(server.URL, false).Complete(context.Background(), "s", "u")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != defaultMaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls.Load(), defaultMaxRetries+1)
	}
}

func TestOpenAIClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`model not found`))
	}))
	defer server.Close()

	_, err := newTestOpenAI(server.URL, false).Complete(context.Background(), "s", "u")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected APIError 400, got %v", err)
	}
	if !strings.Contains(apiErr.Body, "model not found") {
		t.Errorf("body = %q", apiErr.Body)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, calls = %d", calls.Load())
	}
}

func TestOpenAIClient_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		chatReply(w, "recovered")
	}))
	defer server.Close()

	text, err := newTestOpenAI(server.URL, false).Complete(context.Background(), "s", "u")
	if err != nil || text != "recovered" {
		t.Fatalf("text = %q, err = %v", text, err)
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	_, err := newTestOpenAI(server.URL, false).Complete(context.Background(), "s", "u")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestOpenAIClient_NoAPIKey(t *testing.T) {
	c := NewOpenAIClient(Config{BaseURL: "http://unused"})
	if _, err := c.Complete(context.Background(), "s", "u"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestNew_Providers(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: ProviderGroq}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	if _, err := New(context.Background(), Config{Provider: "claude", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider")
	}

	c, err := New(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: "http://x"})
	if err != nil {
		t.Fatalf("New openai: %v", err)
	}
	if c.Name() != ProviderOpenAI {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestGeminiClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if _, ok := req["systemInstruction"]; !ok {
			t.Errorf("systemInstruction missing: %v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"labels\":\"ui\"}"}]}}]}`))
	}))
	defer server.Close()

	c, err := New(context.Background(), Config{
		Provider: ProviderGemini,
		APIKey:   "k",
		BaseURL:  server.URL,
		Model:    "gemini-2.0-flash",
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("New gemini: %v", err)
	}

	text, err := c.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"labels":"ui"}` {
		t.Errorf("text = %q", text)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrRateLimited, true},
		{&APIError{StatusCode: 502}, true},
		{&APIError{StatusCode: 401}, false},
		{ErrNoAPIKey, false},
		{ErrEmptyCompletion, false},
		{context.Canceled, false},
		{errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
