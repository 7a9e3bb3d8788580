package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/arqmanager/portfolio-web/internal/logger"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
)

// ProjectsAPI is the part of the backend the project forms and gallery consume.
type ProjectsAPI interface {
	FetchProject(ctx context.Context, id string) (*domain.Record, error)
	ListProjects(ctx context.Context, search string) ([]domain.Record, error)
	CreateProject(ctx context.Context, in ProjectInput) (*domain.Record, error)
	UpdateProject(ctx context.Context, id string, in ProjectInput) (*domain.Record, error)
	DeleteProject(ctx context.Context, id string) error
}

// AccountAPI is consumed by the session layer only.
type AccountAPI interface {
	FetchCurrentUser(ctx context.Context) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
}

// API is the full capability set of the catalog backend.
type API interface {
	ProjectsAPI
	AccountAPI
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

// Client talks to the catalog backend over HTTP. A Client is bound to at most
// one bearer token; WithToken derives a client sharing transport, limiter and metrics.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
	token      string
}

var _ API = (*Client)(nil)

// NewClient creates a new backend client
func NewClient(opt Options) *Client {
	if opt.Timeout == 0 {
		opt.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opt.RatePerSec > 0 {
		limit = rate.Limit(opt.RatePerSec)
	}
	if opt.Burst <= 0 {
		opt.Burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(opt.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opt.Timeout,
		},
		limiter: rate.NewLimiter(limit, opt.Burst),
		metrics: &Metrics{},
	}
}

// WithToken returns a client that authenticates as the holder of token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Metrics() *Metrics { return c.metrics }

func (c *Client) FetchProject(ctx context.Context, id string) (*domain.Record, error) {
	const op = "fetch_project"
	body, err := c.do(ctx, op, http.MethodGet, "/project/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeProject(op, body)
}

func (c *Client) ListProjects(ctx context.Context, search string) ([]domain.Record, error) {
	const op = "list_projects"
	path := "/project"
	if s := strings.TrimSpace(search); s != "" {
		path += "?" + url.Values{"search": {s}}.Encode()
	}
	body, err := c.do(ctx, op, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return decodeProjectList(op, body)
}

func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*domain.Record, error) {
	const op = "create_project"
	in.RemoveIDs = nil
	body, err := c.doMultipart(ctx, op, http.MethodPost, "/project", in)
	if err != nil {
		return nil, err
	}
	return decodeProject(op, body)
}

func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (*domain.Record, error) {
	const op = "update_project"
	in.Cover = nil
	body, err := c.doMultipart(ctx, op, http.MethodPut, "/project/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	return decodeProject(op, body)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete_project", http.MethodDelete, "/project/"+url.PathEscape(id), nil, "")
	return err
}

func (c *Client) FetchCurrentUser(ctx context.Context) (*domain.User, error) {
	const op = "fetch_current_user"
	if c.token == "" {
		return nil, ErrUnauthenticated
	}
	body, err := c.do(ctx, op, http.MethodGet, "/me", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeUser(op, body)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "login"
	raw, err := json.Marshal(loginReq{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.do(ctx, op, http.MethodPost, "/session", bytes.NewReader(raw), "application/json")
	if err != nil {
		return "", err
	}

	var resp loginResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &MalformedResponseError{Op: op, Reason: "decode session", Err: err}
	}
	if resp.Token == "" {
		return "", &MalformedResponseError{Op: op, Reason: "session without token"}
	}
	return resp.Token, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	const op = "register"
	raw, err := json.Marshal(registerReq{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.do(ctx, op, http.MethodPost, "/users", bytes.NewReader(raw), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeUser(op, body)
}

func (c *Client) doMultipart(ctx context.Context, op, method, path string, in ProjectInput) ([]byte, error) {
	if err := c.wait(ctx, op); err != nil {
		return nil, err
	}
	body, contentType := streamMultipart(in)
	return c.send(ctx, op, method, path, body, contentType)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if err := c.wait(ctx, op); err != nil {
		return nil, err
	}
	return c.send(ctx, op, method, path, body, contentType)
}

func (c *Client) wait(ctx context.Context, op string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string) (out []byte, err error) {
	start := time.Now()
	defer func() {
		c.metrics.record(time.Since(start), err)
		if err != nil {
			logger.New(ctx).LogErrorf("backend_"+op, "method=%s path=%s error=%v", method, path, err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			rc.Close()
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if rid := logger.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthenticated
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, &RemoteValidationError{Op: op, Status: resp.StatusCode, Body: truncate(string(respBody), 512)}
	default:
		return nil, &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", truncate(string(respBody), 512))}
	}
}

// truncate caps s at n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
