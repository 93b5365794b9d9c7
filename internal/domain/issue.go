package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRepo: строка репозитория не в формате owner/repo.
var ErrInvalidRepo = errors.New("repository must be in owner/repo form")

// IssueRef: ссылка на issue в трекере.
type IssueRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

// ParseRepo разбирает строку "owner/repo".
func ParseRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepo, s)
	}
	return owner, repo, nil
}

// NewIssueRef создаёт IssueRef из "owner/repo" и номера issue.
func NewIssueRef(fullRepo string, number int) (IssueRef, error) {
	owner, repo, err := ParseRepo(fullRepo)
	if err != nil {
		return IssueRef{}, err
	}
	if number <= 0 {
		return IssueRef{}, fmt.Errorf("issue number must be positive, got %d", number)
	}
	return IssueRef{Owner: owner, Repo: repo, Number: number}, nil
}

// FullRepo возвращает "owner/repo".
func (r IssueRef) FullRepo() string {
	return r.Owner + "/" + r.Repo
}

// String возвращает "owner/repo#N".
func (r IssueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// Issue: снимок issue из трекера.
type Issue struct {
	Ref      IssueRef `json:"ref"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Comments []string `json:"comments"`
	Labels   []string `json:"labels,omitempty"`
	State    string   `json:"state,omitempty"`
}

// Classification: результат классификации issue моделью.
//
// Пустые CorrectedText и Title означают, что модель их не вернула.
type Classification struct {
	Labels        []string `json:"labels"`
	CorrectedText string   `json:"corrected_text,omitempty"`
	Title         string   `json:"title,omitempty"`
}

// IsEmpty возвращает true, если модель ничего не предложила.
func (c Classification) IsEmpty() bool {
	return len(c.Labels) == 0 && c.CorrectedText == "" && c.Title == ""
}
