// Package llm: клиенты chat-completion API.
//
// Провайдеры:
//   - groq, openai: любой OpenAI-совместимый /chat/completions
//   - gemini: Google GenAI SDK
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Провайдеры.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Ошибки клиентов.
var (
	// ErrRateLimited: провайдер вернул 429 и повторы исчерпаны.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrEmptyCompletion: ответ без текста.
	ErrEmptyCompletion = errors.New("llm: empty completion")

	// ErrNoAPIKey: ключ не задан.
	ErrNoAPIKey = errors.New("llm: api key not configured")
)

// APIError: неуспешный HTTP ответ провайдера.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: api status %d: %s", e.StatusCode, e.Body)
}

// Completer отправляет system и user сообщения и возвращает текст ответа.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Config: настройки клиента.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string

	// JSONMode просит провайдера вернуть JSON объект.
	JSONMode bool

	Timeout    time.Duration
	MaxRetries int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New создаёт Completer по имени провайдера.
func New(ctx context.Context, cfg Config) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	switch cfg.Provider {
	case ProviderGroq, ProviderOpenAI, "":
		return NewOpenAIClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// IsRetryable возвращает true для ошибок, после которых запрос можно повторить позже.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return !errors.Is(err, ErrNoAPIKey) && !errors.Is(err, ErrEmptyCompletion)
}
