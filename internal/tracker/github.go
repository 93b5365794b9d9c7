package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/shaiso/Triage/internal/domain"
)

const pageSize = 100

// GitHubConfig: настройки клиента GitHub.
type GitHubConfig struct {
	Token string

	// BaseURL: адрес REST API (GitHub Enterprise или тестовый сервер).
	// Пустой: https://api.github.com/.
	BaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GitHub: Tracker поверх go-github.
type GitHub struct {
	client *github.Client
	logger *slog.Logger
}

var _ Tracker = (*GitHub)(nil)

// NewGitHub создаёт клиента GitHub.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	client := github.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = u
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GitHub{client: client, logger: logger.With("component", "tracker")}, nil
}

// GetIssue возвращает issue вместе с комментариями.
func (g *GitHub) GetIssue(ctx context.Context, ref domain.IssueRef) (*domain.Issue, error) {
	issue, resp, err := g.client.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, wrapError("get issue", resp, err)
	}

	comments, err := g.ListComments(ctx, ref)
	if err != nil {
		return nil, err
	}

	result := &domain.Issue{
		Ref:      ref,
		Title:    issue.GetTitle(),
		Body:     issue.GetBody(),
		Comments: comments,
		State:    issue.GetState(),
	}
	for _, l := range issue.Labels {
		result.Labels = append(result.Labels, l.GetName())
	}
	return result, nil
}

// ListComments обходит все страницы комментариев.
func (g *GitHub) ListComments(ctx context.Context, ref domain.IssueRef) ([]string, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	comments := []string{}
	for {
		page, resp, err := g.client.Issues.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		if err != nil {
			return nil, wrapError("list comments", resp, err)
		}
		for _, c := range page {
			comments = append(comments, c.GetBody())
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetLabel возвращает метку репозитория.
// go-github не экранирует имя в пути, поэтому оно экранируется здесь.
func (g *GitHub) GetLabel(ctx context.Context, owner, repo, name string) (*Label, error) {
	label, resp, err := g.client.Issues.GetLabel(ctx, owner, repo, url.PathEscape(name))
	if err != nil {
		return nil, wrapError("get label", resp, err)
	}
	return &Label{Name: label.GetName(), Color: label.GetColor()}, nil
}

// CreateLabel создаёт метку.
func (g *GitHub) CreateLabel(ctx context.Context, owner, repo string, label Label) (*Label, error) {
	created, resp, err := g.client.Issues.CreateLabel(ctx, owner, repo, &github.Label{
		Name:  github.String(label.Name),
		Color: github.String(label.Color),
	})
	if err != nil {
		return nil, wrapError("create label", resp, err)
	}
	g.logger.Info("label created", "repo", owner+"/"+repo, "label", created.GetName(), "color", created.GetColor())
	return &Label{Name: created.GetName(), Color: created.GetColor()}, nil
}

// AddLabels добавляет метки к issue.
func (g *GitHub) AddLabels(ctx context.Context, ref domain.IssueRef, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, resp, err := g.client.Issues.AddLabelsToIssue(ctx, ref.Owner, ref.Repo, ref.Number, names)
	if err != nil {
		return wrapError("add labels", resp, err)
	}
	return nil
}

// CreateComment публикует комментарий к issue.
func (g *GitHub) CreateComment(ctx context.Context, ref domain.IssueRef, body string) error {
	_, resp, err := g.client.Issues.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return wrapError("create comment", resp, err)
	}
	return nil
}

// EditIssue меняет заголовок и/или тело issue.
func (g *GitHub) EditIssue(ctx context.Context, ref domain.IssueRef, edit IssueEdit) error {
	if edit.Title == nil && edit.Body == nil {
		return nil
	}
	_, resp, err := g.client.Issues.Edit(ctx, ref.Owner, ref.Repo, ref.Number, &github.IssueRequest{
		Title: edit.Title,
		Body:  edit.Body,
	})
	if err != nil {
		return wrapError("edit issue", resp, err)
	}
	return nil
}

// ListUntriagedIssues возвращает открытые issues без меток.
func (g *GitHub) ListUntriagedIssues(ctx context.Context, owner, repo string, limit int) ([]domain.Issue, error) {
	if limit <= 0 {
		limit = pageSize
	}
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	var result []domain.Issue
	for {
		page, resp, err := g.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrapError("list issues", resp, err)
		}
		for _, issue := range page {
			if issue.IsPullRequest() || len(issue.Labels) > 0 {
				continue
			}
			result = append(result, domain.Issue{
				Ref:   domain.IssueRef{Owner: owner, Repo: repo, Number: issue.GetNumber()},
				Title: issue.GetTitle(),
				Body:  issue.GetBody(),
				State: issue.GetState(),
			})
			if len(result) >= limit {
				return result, nil
			}
		}
		if resp.NextPage == 0 {
			return result, nil
		}
		opts.Page = resp.NextPage
	}
}

// wrapError приводит ошибки go-github к APIError.
func wrapError(op string, resp *github.Response, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &APIError{Op: op, StatusCode: http.StatusTooManyRequests, Message: rateErr.Message}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &APIError{Op: op, StatusCode: http.StatusTooManyRequests, Message: abuseErr.Message}
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &APIError{Op: op, StatusCode: ghErr.Response.StatusCode, Message: ghErr.Message}
	}
	if resp != nil && resp.Response != nil && resp.StatusCode >= 400 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: err.Error()}
	}
	return fmt.Errorf("tracker %s: %w", op, err)
}
