package triage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Triage/internal/config"
	"github.com/shaiso/Triage/internal/llm"
	"github.com/shaiso/Triage/internal/tracker"
)

// Setup собирает Service из конфигурации: GitHub трекер и chat-completion провайдер.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.ValidateTriage(); err != nil {
		return nil, err
	}

	gh, err := tracker.NewGitHub(tracker.GitHubConfig{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}

	completer, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		JSONMode: cfg.LLM.JSONMode,
		Timeout:  cfg.LLM.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.LLM.Provider, err)
	}

	return New(Config{
		Tracker:      gh,
		Completer:    completer,
		MaxLabels:    cfg.Triage.MaxLabels,
		DefaultLabel: cfg.Triage.DefaultLabel,
		Logger:       logger,
	})
}
