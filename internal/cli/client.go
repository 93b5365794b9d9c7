package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// UserResponse: пользователь из API.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// TaskResponse: task из API.
type TaskResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      *int64 `json:"user_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// WorkspaceResponse: workspace из API.
type WorkspaceResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// MembershipResponse: членство в workspace.
type MembershipResponse struct {
	WorkspaceID int64  `json:"workspace_id"`
	UserID      int64  `json:"user_id"`
	JoinedAt    string `json:"joined_at"`
}

// JobResponse: задание на триаж из API.
type JobResponse struct {
	ID              string   `json:"id"`
	Repo            string   `json:"repo"`
	IssueNumber     int      `json:"issue_number"`
	FixTyposComment bool     `json:"fix_typos_comment"`
	Source          string   `json:"source"`
	Status          string   `json:"status"`
	Attempt         int      `json:"attempt"`
	Labels          []string `json:"labels"`
	TitleUpdated    bool     `json:"title_updated"`
	BodyUpdated     bool     `json:"body_updated"`
	Error           string   `json:"error,omitempty"`
	CreatedAt       string   `json:"created_at"`
	StartedAt       string   `json:"started_at,omitempty"`
	FinishedAt      string   `json:"finished_at,omitempty"`
}

// --- Request types ---

// CreateJobRequest: создание задания.
type CreateJobRequest struct {
	Repo            string `json:"repo"`
	IssueNumber     int    `json:"issue_number"`
	FixTyposComment bool   `json:"fix_typos_comment,omitempty"`
	Source          string `json:"source,omitempty"`
}

// CreateTaskRequest: создание task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	UserID      *int64 `json:"user_id,omitempty"`
}

// ListJobsOpts: параметры фильтрации заданий.
type ListJobsOpts struct {
	Repo   string
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError: ошибка, которую вернул сервер.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound проверяет, что сервер ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// --- Client ---

// Client: HTTP-клиент для Triage API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. token: bearer токен, может быть пустым.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Users ---

// ListUsers возвращает пользователей.
func (c *Client) ListUsers(ctx context.Context, skip, limit int) ([]UserResponse, error) {
	var users []UserResponse
	err := c.list(ctx, "/api/v1/users", pageParams(skip, limit), &users)
	return users, err
}

// CreateUser создаёт пользователя.
func (c *Client) CreateUser(ctx context.Context, username, email string) (*UserResponse, error) {
	body := map[string]string{"username": username, "email": email}
	var user UserResponse
	err := c.post(ctx, "/api/v1/users", body, &user)
	return &user, err
}

// GetUser возвращает пользователя по ID.
func (c *Client) GetUser(ctx context.Context, id int64) (*UserResponse, error) {
	var user UserResponse
	err := c.get(ctx, "/api/v1/users/"+itoa(id), &user)
	return &user, err
}

// DeleteUser удаляет пользователя.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.delete(ctx, "/api/v1/users/"+itoa(id))
}

// --- Tasks ---

// ListTasks возвращает tasks. userID > 0 фильтрует по владельцу.
func (c *Client) ListTasks(ctx context.Context, userID int64, skip, limit int) ([]TaskResponse, error) {
	params := pageParams(skip, limit)
	if userID > 0 {
		params.Set("user_id", itoa(userID))
	}
	var tasks []TaskResponse
	err := c.list(ctx, "/api/v1/tasks", params, &tasks)
	return tasks, err
}

// CreateTask создаёт task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	var task TaskResponse
	err := c.post(ctx, "/api/v1/tasks", req, &task)
	return &task, err
}

// DeleteTask удаляет task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.delete(ctx, "/api/v1/tasks/"+itoa(id))
}

// --- Workspaces ---

// ListWorkspaces возвращает workspaces.
func (c *Client) ListWorkspaces(ctx context.Context, skip, limit int) ([]WorkspaceResponse, error) {
	var workspaces []WorkspaceResponse
	err := c.list(ctx, "/api/v1/workspaces", pageParams(skip, limit), &workspaces)
	return workspaces, err
}

// CreateWorkspace создаёт workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name string) (*WorkspaceResponse, error) {
	var ws WorkspaceResponse
	err := c.post(ctx, "/api/v1/workspaces", map[string]string{"name": name}, &ws)
	return &ws, err
}

// ListMembers возвращает участников workspace.
func (c *Client) ListMembers(ctx context.Context, workspaceID int64) ([]UserResponse, error) {
	var users []UserResponse
	err := c.list(ctx, "/api/v1/workspaces/"+itoa(workspaceID)+"/members", nil, &users)
	return users, err
}

// AddMember добавляет пользователя в workspace.
func (c *Client) AddMember(ctx context.Context, workspaceID, userID int64) (*MembershipResponse, error) {
	var m MembershipResponse
	err := c.post(ctx, "/api/v1/workspaces/"+itoa(workspaceID)+"/members", map[string]int64{"user_id": userID}, &m)
	return &m, err
}

// --- Triage jobs ---

// CreateJob ставит issue в очередь на триаж.
func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (*JobResponse, error) {
	var job JobResponse
	err := c.post(ctx, "/api/v1/triage/jobs", req, &job)
	return &job, err
}

// ListJobs возвращает задания с фильтрацией.
func (c *Client) ListJobs(ctx context.Context, opts ListJobsOpts) ([]JobResponse, error) {
	params := url.Values{}
	if opts.Repo != "" {
		params.Set("repo", opts.Repo)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var jobs []JobResponse
	err := c.list(ctx, "/api/v1/triage/jobs", params, &jobs)
	return jobs, err
}

// GetJob возвращает задание по ID.
func (c *Client) GetJob(ctx context.Context, id string) (*JobResponse, error) {
	var job JobResponse
	err := c.get(ctx, "/api/v1/triage/jobs/"+url.PathEscape(id), &job)
	return &job, err
}

// RetryJob перезапускает FAILED задание.
func (c *Client) RetryJob(ctx context.Context, id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post(ctx, "/api/v1/triage/jobs/"+url.PathEscape(id)+"/retry", nil, &job)
	return &job, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return &APIError{StatusCode: resp.StatusCode}
	}

	return &APIError{StatusCode: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message}
}

func pageParams(skip, limit int) url.Values {
	params := url.Values{}
	if skip > 0 {
		params.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
