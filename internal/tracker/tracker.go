// Package tracker описывает доступ к issue-трекеру и реализует его для GitHub.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shaiso/Triage/internal/domain"
)

// ErrNotFound: issue, метка или репозиторий не найдены.
var ErrNotFound = errors.New("tracker: not found")

// APIError: ответ трекера с кодом ошибки.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracker %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is позволяет errors.Is(err, ErrNotFound) для 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsRetryable возвращает true для ошибок, которые имеет смысл повторить:
// 429, 5xx и ошибки без кода (сеть, таймаут).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, context.Canceled)
}

// Label: метка репозитория.
type Label struct {
	Name  string
	Color string
}

// IssueEdit: изменения issue. nil поля не меняются.
type IssueEdit struct {
	Title *string
	Body  *string
}

// Tracker: операции над issues, нужные для триажа.
type Tracker interface {
	// GetIssue возвращает заголовок, тело, метки и тексты всех комментариев.
	GetIssue(ctx context.Context, ref domain.IssueRef) (*domain.Issue, error)

	// ListComments возвращает тексты комментариев в порядке создания.
	ListComments(ctx context.Context, ref domain.IssueRef) ([]string, error)

	// GetLabel возвращает метку репозитория; ErrNotFound, если её нет.
	GetLabel(ctx context.Context, owner, repo, name string) (*Label, error)

	// CreateLabel создаёт метку с цветом в формате RRGGBB.
	CreateLabel(ctx context.Context, owner, repo string, label Label) (*Label, error)

	// AddLabels добавляет метки к issue.
	AddLabels(ctx context.Context, ref domain.IssueRef, names []string) error

	// CreateComment публикует комментарий.
	CreateComment(ctx context.Context, ref domain.IssueRef, body string) error

	// EditIssue меняет заголовок и/или тело.
	EditIssue(ctx context.Context, ref domain.IssueRef, edit IssueEdit) error

	// ListUntriagedIssues возвращает открытые issues без меток (без pull requests),
	// новые первыми, не больше limit.
	ListUntriagedIssues(ctx context.Context, owner, repo string, limit int) ([]domain.Issue, error)
}
