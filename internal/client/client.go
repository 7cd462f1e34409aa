// Package client はTrackIt APIのHTTPクライアントです。
// 認証情報はSessionとして呼び出しごとに明示的に渡します。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"trackit/internal/models"
)

// ErrNotLoggedIn はトークンの無いセッションで認証が必要なAPIを呼んだ場合のエラーです。
var ErrNotLoggedIn = errors.New("not logged in")

// APIError は2xx以外のレスポンスです。
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api: %d %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus はerrが指定ステータスのAPIErrorかを返します。
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client はAPIクライアントです。
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New はbaseURL宛てのClientを作成します。timeoutは呼び出しごとの上限です。
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

// BaseURL は接続先を返します。
func (c *Client) BaseURL() string { return c.baseURL }

// ServerFor はsessの送信先を返します。トークンは発行したサーバーにだけ送ります。
func (c *Client) ServerFor(sess Session) string {
	if sess.ServerURL != "" {
		return strings.TrimRight(sess.ServerURL, "/")
	}
	return c.baseURL
}

// Register はユーザーを登録し、ログイン済みのセッションを返します。
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	var res models.AuthResponse
	err := c.do(ctx, Session{}, http.MethodPost, "/api/users/register", models.UserRegisterRequest{
		Name: name, Email: email, Password: password,
	}, &res)
	if err != nil {
		return Session{}, err
	}
	return c.sessionFrom(res), nil
}

// Login はログインしてセッションを返します。
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var res models.AuthResponse
	err := c.do(ctx, Session{}, http.MethodPost, "/api/users/login", models.UserLoginRequest{
		Email: email, Password: password,
	}, &res)
	if err != nil {
		return Session{}, err
	}
	return c.sessionFrom(res), nil
}

// Me はセッションのユーザーを返します。
func (c *Client) Me(ctx context.Context, sess Session) (*models.User, error) {
	var u models.User
	if err := c.authed(ctx, sess, http.MethodGet, "/api/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListTasks は全タスクを返します。
func (c *Client) ListTasks(ctx context.Context, sess Session) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := c.authed(ctx, sess, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask は指定IDのタスクを返します。
func (c *Client) GetTask(ctx context.Context, sess Session, id string) (*models.Task, error) {
	var t models.Task
	if err := c.authed(ctx, sess, http.MethodGet, taskPath(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask はタスクを作成します。
func (c *Client) CreateTask(ctx context.Context, sess Session, req models.TaskCreateRequest) (*models.Task, error) {
	var t models.Task
	if err := c.authed(ctx, sess, http.MethodPost, "/api/tasks", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask はパッチに含まれるフィールドを更新します。
func (c *Client) UpdateTask(ctx context.Context, sess Session, id string, patch models.TaskPatch) (*models.Task, error) {
	var t models.Task
	if err := c.authed(ctx, sess, http.MethodPut, taskPath(id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// MoveTask はタスクのステータスを変更します。
func (c *Client) MoveTask(ctx context.Context, sess Session, id string, status models.TaskStatus) (*models.Task, error) {
	var t models.Task
	if err := c.authed(ctx, sess, http.MethodPatch, taskPath(id)+"/move", models.TaskMoveRequest{Status: status}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask はタスクを削除します。
func (c *Client) DeleteTask(ctx context.Context, sess Session, id string) error {
	return c.authed(ctx, sess, http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id string) string {
	return "/api/tasks/" + url.PathEscape(id)
}

func (c *Client) sessionFrom(res models.AuthResponse) Session {
	return Session{
		ServerURL: c.baseURL,
		Token:     res.Token,
		User:      SessionUser{ID: res.ID, Name: res.Name, Email: res.Email},
	}
}

func (c *Client) authed(ctx context.Context, sess Session, method, path string, body, out any) error {
	if sess.Token == "" {
		return ErrNotLoggedIn
	}
	return c.do(ctx, sess, method, path, body, out)
}

func (c *Client) do(ctx context.Context, sess Session, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ServerFor(sess)+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	log.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "latency", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Details = payload.Details
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Bound はセッションを固定したクライアントです。ボードから使います。
type Bound struct {
	c    *Client
	sess Session
}

// WithSession はsessを固定したBoundを返します。
func (c *Client) WithSession(sess Session) *Bound {
	return &Bound{c: c, sess: sess}
}

func (b *Bound) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return b.c.ListTasks(ctx, b.sess)
}

func (b *Bound) CreateTask(ctx context.Context, req models.TaskCreateRequest) (*models.Task, error) {
	return b.c.CreateTask(ctx, b.sess, req)
}

func (b *Bound) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	return b.c.UpdateTask(ctx, b.sess, id, patch)
}

func (b *Bound) MoveTask(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	return b.c.MoveTask(ctx, b.sess, id, status)
}

func (b *Bound) DeleteTask(ctx context.Context, id string) error {
	return b.c.DeleteTask(ctx, b.sess, id)
}
