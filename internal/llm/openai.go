package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Triage/internal/telemetry"
)

const (
	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second
	maxErrorBody      = 2048
)

// OpenAIClient: клиент OpenAI-совместимого /chat/completions (Groq, OpenAI).
type OpenAIClient struct {
	provider   string
	apiKey     string
	baseURL    string
	model      string
	jsonMode   bool
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger

	// sleep ждёт между повторами; в тестах подменяется.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Completer = (*OpenAIClient)(nil)

// NewOpenAIClient создаёт клиента.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGroq
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIClient{
		provider:   provider,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		jsonMode:   cfg.JSONMode,
		maxRetries: maxRetries,
		httpClient: httpClient,
		logger:     logger.With("component", "llm", "provider", provider),
		sleep:      sleepCtx,
	}
}

// Name возвращает имя провайдера.
func (c *OpenAIClient) Name() string {
	return c.provider
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete отправляет запрос, повторяя его при 429, 5xx и сетевых ошибках.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
	}
	if c.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	start := time.Now()
	defer func() {
		telemetry.LLMDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.Warn("retrying chat completion", "attempt", attempt, "delay", delay, "error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		text, err := c.do(ctx, payload)
		if err == nil {
			telemetry.LLMRequests.WithLabelValues(c.provider, "ok").Inc()
			c.logger.Debug("chat completion done", "duration", time.Since(start), "response_len", len(text))
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}

	telemetry.LLMRequests.WithLabelValues(c.provider, outcome(lastErr)).Inc()
	return "", lastErr
}

func (c *OpenAIClient) do(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", ErrRateLimited, truncate(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Body: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	case errors.As(err, &apiErr):
		return "api_error"
	default:
		return "error"
	}
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
