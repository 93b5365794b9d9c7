package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Triage/internal/telemetry"
	"google.golang.org/genai"
)

// GeminiClient: Completer поверх Google GenAI SDK.
type GeminiClient struct {
	client   *genai.Client
	model    string
	jsonMode bool
	timeout  time.Duration
	logger   *slog.Logger
}

var _ Completer = (*GeminiClient)(nil)

// NewGeminiClient создаёт клиента Gemini API.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiClient{
		client:   client,
		model:    cfg.Model,
		jsonMode: cfg.JSONMode,
		timeout:  timeout,
		logger:   logger.With("component", "llm", "provider", ProviderGemini),
	}, nil
}

// Name возвращает имя провайдера.
func (c *GeminiClient) Name() string {
	return ProviderGemini
}

// Complete генерирует ответ с system instruction.
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	temperature := float32(0.1)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temperature,
	}
	if c.jsonMode {
		genCfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), genCfg)
	telemetry.LLMDuration.WithLabelValues(ProviderGemini).Observe(time.Since(start).Seconds())
	if err != nil {
		err = translateGenAIError(err)
		telemetry.LLMRequests.WithLabelValues(ProviderGemini, outcome(err)).Inc()
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		telemetry.LLMRequests.WithLabelValues(ProviderGemini, "empty").Inc()
		return "", ErrEmptyCompletion
	}

	telemetry.LLMRequests.WithLabelValues(ProviderGemini, "ok").Inc()
	c.logger.Debug("gemini completion done", "duration", time.Since(start), "response_len", len(text))
	return text, nil
}

// translateGenAIError приводит ошибки SDK к ошибкам пакета.
func translateGenAIError(err error) error {
	code := 0
	message := err.Error()

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, message = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, message = apiErrPtr.Code, apiErrPtr.Message
	default:
		return err
	}

	if code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	}
	return &APIError{StatusCode: code, Body: message}
}
