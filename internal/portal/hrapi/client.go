// Package hrapi is the portal's HTTP client for the hr-portal server. It
// implements the session, role table and attendance table contracts of the
// portal package and keeps the installed session in the local store.
package hrapi

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
	"sync"
	"time"

	"github.com/frahmantamala/hr-portal/internal/portal"
	"github.com/frahmantamala/hr-portal/internal/role"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

// KeySession is the store key holding the serialized session.
const KeySession = "hr.session"

const (
	apiPrefix   = "/api/v1"
	refreshSkew = 30 * time.Second
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	store   role.Store
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	session   *portal.Session
	loaded    bool
	listeners map[int]portal.AuthListener
	nextID    int
}

var (
	_ portal.AuthBackend     = (*Client)(nil)
	_ portal.RoleTable       = (*Client)(nil)
	_ portal.AttendanceTable = (*Client)(nil)
)

func NewClient(config Config, store role.Store, lg *slog.Logger) *Client {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		apiKey:    config.APIKey,
		http:      &http.Client{Timeout: timeout},
		store:     store,
		logger:    lg,
		now:       time.Now,
		listeners: make(map[int]portal.AuthListener),
	}
}

// WithClock replaces the clock used for expiry checks.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("hr api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("hr api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// DBCode returns the database error code the server attached, if any.
func (e *APIError) DBCode() string {
	if e.Details == nil {
		return ""
	}
	code, _ := e.Details["db_code"].(string)
	return code
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+apiPrefix+r.path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Error struct {
			Type    string         `json:"type"`
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &envelope); err == nil {
		apiErr.Type = envelope.Error.Type
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
	}
	return apiErr
}

// authorized runs r with the current access token, refreshing it first when
// it is about to expire.
func (c *Client) authorized(ctx context.Context, r request, out any) error {
	session, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return portal.ErrNoSession
	}
	r.token = session.AccessToken
	return c.do(ctx, r, out)
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
