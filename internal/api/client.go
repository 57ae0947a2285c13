package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/projecthub/console/internal/domain/invite"
	"github.com/projecthub/console/internal/domain/project"
	"github.com/projecthub/console/internal/domain/user"
)

// Observer receives one sample per completed upstream call. Implemented by
// the prometheus wiring in observability.
type Observer interface {
	ObserveUpstream(method, path string, status int, seconds float64)
}

type Option func(c *Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func WithObserver(obs Observer) Option {
	return func(c *Client) {
		c.obs = obs
	}
}

// Client talks to the remote project-management API. It is stateless apart
// from the bearer credential; swap credentials with WithToken. No retries and
// no client-side timeout: a failed call surfaces its error exactly once.
type Client struct {
	hc    *http.Client
	log   *slog.Logger
	base  url.URL
	token string
	obs   Observer
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)

	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}

	c := &Client{
		hc:   http.DefaultClient,
		log:  slog.Default(),
		base: *u,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// WithToken returns a shallow copy of the client that sends the given bearer
// credential. An empty token omits the Authorization header entirely.
// In-flight calls on the receiver are unaffected.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Auth

func (c *Client) Login(ctx context.Context, email, password string) (user.User, string, error) {
	body := map[string]string{"email": email, "password": password}

	var out struct {
		User  user.User `json:"user"`
		Token string    `json:"token"`
	}

	err := c.do(ctx, http.MethodPost, "/auth/login", body, &out)

	if err != nil {
		return user.User{}, "", err
	}

	return out.User, out.Token, nil
}

func (c *Client) RegisterViaInvite(ctx context.Context, token, name, password string) (user.User, string, error) {
	body := map[string]string{"token": token, "name": name, "password": password}

	var out struct {
		User  user.User `json:"user"`
		Token string    `json:"token"`
	}

	err := c.do(ctx, http.MethodPost, "/auth/register-via-invite", body, &out)

	if err != nil {
		return user.User{}, "", err
	}

	return out.User, out.Token, nil
}

// Invites

func (c *Client) CreateInvite(ctx context.Context, email, role string) (invite.Invite, error) {
	body := map[string]string{"email": email, "role": role}

	var out invite.Invite

	err := c.do(ctx, http.MethodPost, "/auth/invite", body, &out)

	return out, err
}

func (c *Client) ListInvites(ctx context.Context) ([]invite.Invite, error) {
	var out struct {
		Invites []invite.Invite `json:"invites"`
	}

	err := c.do(ctx, http.MethodGet, "/auth/invite", nil, &out)

	return out.Invites, err
}

// Projects

func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	var out struct {
		Projects []project.Project `json:"projects"`
	}

	err := c.do(ctx, http.MethodGet, "/projects", nil, &out)

	return out.Projects, err
}

func (c *Client) GetProject(ctx context.Context, id string) (project.Project, error) {
	var out struct {
		Project project.Project `json:"project"`
	}

	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &out)

	return out.Project, err
}

func (c *Client) CreateProject(ctx context.Context, name, description string) error {
	body := map[string]string{"name": name, "description": description}

	return c.do(ctx, http.MethodPost, "/projects", body, nil)
}

func (c *Client) UpdateProject(ctx context.Context, id, name, description, status string) error {
	body := map[string]string{"name": name, "description": description, "status": status}

	return c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), body, nil)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}

// Users

func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var out struct {
		Users []user.User `json:"users"`
	}

	err := c.do(ctx, http.MethodGet, "/users", nil, &out)

	return out.Users, err
}

func (c *Client) UpdateUserRole(ctx context.Context, id, role string) error {
	body := map[string]string{"role": role}

	return c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/role", body, nil)
}

func (c *Client) UpdateUserStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}

	return c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/status", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader

	if body != nil {
		b, err := json.Marshal(body)

		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}

		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)

	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()

	resp, err := c.hc.Do(req)

	if err != nil {
		if c.obs != nil {
			c.obs.ObserveUpstream(method, path, 0, time.Since(start).Seconds())
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	defer resp.Body.Close()

	elapsed := time.Since(start)

	if c.obs != nil {
		c.obs.ObserveUpstream(method, path, resp.StatusCode, elapsed.Seconds())
	}

	c.log.DebugContext(ctx, "upstream call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", elapsed.Milliseconds(),
	)

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}

	return nil
}

func (c *Client) endpoint(path string) string {
	u := c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}
