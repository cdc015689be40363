// Package authapi is a typed client for the /auth HTTP endpoints. It keeps the
// session cookies in a jar so successive calls behave like a browser session.
package authapi

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

	"github.com/nhadat/listing-auth/internal/models"
)

const defaultTimeout = 10 * time.Second

// AuthPayload is the data returned by register, login and refresh.
type AuthPayload struct {
	User         models.UserSummary `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Client talks to the auth service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option customizes a Client.
type Option func(*options)

// WithHTTPClient uses a copy of hc as the transport. The caller's client is
// never modified; a session jar is attached to the copy when hc has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout sets the per-request timeout. It overrides the timeout of a
// client passed with WithHTTPClient, in whatever order the options are given.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New returns a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	hc := &http.Client{Timeout: defaultTimeout}
	if o.httpClient != nil {
		cp := *o.httpClient
		hc = &cp
	}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}
	if hc.Jar == nil {
		jar, err := newSessionJar()
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}
	return &Client{baseURL: base, http: hc}, nil
}

// ClearSession drops the session cookies held for the service, so later calls
// are anonymous even when the server never acknowledged a logout.
func (c *Client) ClearSession() {
	if jar, ok := c.http.Jar.(*sessionJar); ok {
		jar.reset()
		return
	}
	expired := make([]*http.Cookie, 0, len(sessionCookies))
	for _, name := range sessionCookies {
		expired = append(expired, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	}
	c.http.Jar.SetCookies(c.baseURL, expired)
}

// Register creates an account and stores the session cookies.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthPayload, error) {
	var out AuthPayload
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login signs in and stores the session cookies.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthPayload
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates the session using the refresh token cookie.
func (c *Client) Refresh(ctx context.Context) (*AuthPayload, error) {
	var out AuthPayload
	if err := c.do(ctx, http.MethodPost, "/auth/refresh-token", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session on the server, which clears the cookies.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string        `json:"code"`
		Message string        `json:"message"`
		Details []FieldDetail `json:"details"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
