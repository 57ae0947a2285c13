package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/api"
	"github.com/projecthub/console/internal/cache"
	"github.com/projecthub/console/internal/config"
	httpx "github.com/projecthub/console/internal/http"
	"github.com/projecthub/console/internal/observability"
	"github.com/projecthub/console/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
	slog.SetDefault(observability.Discard())
}

// fakeUpstream stands in for the remote project-management API. It speaks the
// same JSON the real server does and counts calls so tests can assert on
// caching behavior.
type fakeUpstream struct {
	mu sync.Mutex

	listProjectsCalls int
	listUsersCalls    int
	lastRoleUpdate    string
	lastStatusUpdate  string
	deletedProject    string
}

const (
	adminJSON = `{"_id":"u1","name":"Ada","email":"ada@example.com","role":"ADMIN","status":"ACTIVE"}`
	staffJSON = `{"_id":"u2","name":"Sam","email":"sam@example.com","role":"STAFF","status":"ACTIVE"}`
)

func (f *fakeUpstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		route := r.Method + " " + r.URL.Path

		switch {
		case route == "POST /auth/login":
			var creds map[string]string
			json.NewDecoder(r.Body).Decode(&creds)

			switch {
			case creds["email"] == "ada@example.com" && creds["password"] == "secret":
				io.WriteString(w, `{"user":`+adminJSON+`,"token":"tok-admin"}`)
			case creds["email"] == "sam@example.com" && creds["password"] == "secret":
				io.WriteString(w, `{"user":`+staffJSON+`,"token":"tok-staff"}`)
			default:
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"message":"Invalid credentials"}`)
			}

		case route == "POST /auth/register-via-invite":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)

			if body["token"] != "good-token" {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"message":"Invalid or expired invite"}`)
				return
			}

			io.WriteString(w, `{"user":{"_id":"u3","name":"`+body["name"]+`","email":"nina@example.com","role":"STAFF","status":"ACTIVE"},"token":"tok-nina"}`)

		case route == "GET /projects":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"message":"Not authorized"}`)
				return
			}

			f.mu.Lock()
			f.listProjectsCalls++
			f.mu.Unlock()

			io.WriteString(w, `{"projects":[{"_id":"p1","name":"Apollo","description":"moon shot","status":"ACTIVE","createdBy":{"name":"Ada","email":"ada@example.com","role":"ADMIN"}}]}`)

		case route == "POST /projects":
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{}`)

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/projects/"):
			f.mu.Lock()
			f.deletedProject = strings.TrimPrefix(r.URL.Path, "/projects/")
			f.mu.Unlock()
			io.WriteString(w, `{}`)

		case route == "GET /users":
			f.mu.Lock()
			f.listUsersCalls++
			f.mu.Unlock()

			io.WriteString(w, `{"users":[`+adminJSON+`,`+staffJSON+`]}`)

		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/role"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)

			f.mu.Lock()
			f.lastRoleUpdate = r.URL.Path + "=" + body["role"]
			f.mu.Unlock()

			io.WriteString(w, `{}`)

		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/status"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)

			f.mu.Lock()
			f.lastStatusUpdate = r.URL.Path + "=" + body["status"]
			f.mu.Unlock()

			io.WriteString(w, `{}`)

		case route == "GET /auth/invite":
			io.WriteString(w, `{"invites":[{"_id":"i0","email":"old@example.com","role":"MANAGER","token":"older-token"}]}`)

		case route == "POST /auth/invite":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)

			io.WriteString(w, `{"_id":"i1","email":"`+body["email"]+`","role":"`+body["role"]+`","token":"inv-tok-1"}`)

		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Not found"}`)
		}
	})
}

type console struct {
	srv      *httptest.Server
	upstream *fakeUpstream
	client   *http.Client
}

func newConsole(t *testing.T) *console {
	t.Helper()

	upstream := &fakeUpstream{}
	upstreamSrv := httptest.NewServer(upstream.handler())
	t.Cleanup(upstreamSrv.Close)

	cfg := config.Config{
		Env:                    "test",
		SessionSecret:          "test-secret",
		SessionTTLHours:        1,
		CacheTTLSeconds:        60,
		LoginRateLimit:         100,
		LoginRateWindowSeconds: 60,
	}

	store := session.NewMemoryStore()
	sessions := session.NewManager(cfg.SessionSecret, time.Hour, store)

	apiClient, err := api.New(upstreamSrv.URL, api.WithLogger(observability.Discard()))

	if err != nil {
		t.Fatalf("api client: %v", err)
	}

	queries := cache.New(time.Minute)
	bus := cache.NewBus()

	router := httpx.NewRouter(cfg, apiClient, sessions, queries, bus, nil, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)

	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	client := &http.Client{
		Jar: jar,
		// redirects are asserted on, not followed
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &console{srv: srv, upstream: upstream, client: client}
}

func (c *console) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	resp, err := c.client.Get(c.srv.URL + path)

	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}

	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	return resp, string(body)
}

func (c *console) postForm(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()

	resp, err := c.client.PostForm(c.srv.URL+path, values)

	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}

	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	return resp, string(body)
}

func (c *console) login(t *testing.T, email, password string) {
	t.Helper()

	resp, _ := c.postForm(t, "/login", url.Values{"email": {email}, "password": {password}})

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login as %s: status = %d", email, resp.StatusCode)
	}
}

func TestAnonymousNavigation(t *testing.T) {
	c := newConsole(t)

	resp, body := c.get(t, "/")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "RBAC Project Management System") {
		t.Fatalf("home: status = %d", resp.StatusCode)
	}

	for _, path := range []string{"/dashboard", "/projects", "/no-such-screen"} {
		resp, _ := c.get(t, path)

		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
			t.Fatalf("GET %s: status = %d, Location = %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}

	// admin screens bounce any non-admin, a null identity included, to the
	// dashboard; the dashboard then sends the anonymous visitor to login
	for _, path := range []string{"/users", "/invite"} {
		resp, _ := c.get(t, path)

		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
			t.Fatalf("GET %s: status = %d, Location = %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}

	resp, _ = c.postForm(t, "/users/u2/role", url.Values{"role": {"MANAGER"}})

	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("anonymous role update: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	if c.upstream.lastRoleUpdate != "" {
		t.Fatal("anonymous mutation must never reach the upstream API")
	}
}

func TestLoginLogout(t *testing.T) {
	c := newConsole(t)

	// wrong credentials render the server's message inline
	resp, body := c.postForm(t, "/login", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}})

	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "Invalid credentials") {
		t.Fatalf("bad login: status = %d", resp.StatusCode)
	}

	// a bad submission never reaches the network
	resp, body = c.postForm(t, "/login", url.Values{"email": {"not-an-email"}, "password": {"x"}})

	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "must be a valid email address") {
		t.Fatalf("invalid form: status = %d body = %q", resp.StatusCode, body)
	}

	c.login(t, "ada@example.com", "secret")

	resp, body = c.get(t, "/dashboard")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Welcome, Ada!") {
		t.Fatalf("dashboard after login: status = %d", resp.StatusCode)
	}

	// admin sees the admin cards
	if !strings.Contains(body, "User Management") || !strings.Contains(body, "Invite Users") {
		t.Fatal("admin dashboard should show admin cards")
	}

	resp, _ = c.postForm(t, "/logout", url.Values{})

	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("logout: status = %d", resp.StatusCode)
	}

	resp, _ = c.get(t, "/dashboard")

	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("dashboard after logout: status = %d", resp.StatusCode)
	}
}

func TestRoleGating(t *testing.T) {
	c := newConsole(t)
	c.login(t, "sam@example.com", "secret")

	// staff sees projects but no admin actions
	resp, body := c.get(t, "/projects")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Apollo") {
		t.Fatalf("staff projects: status = %d", resp.StatusCode)
	}

	if strings.Contains(body, "/projects/p1/delete") {
		t.Fatal("staff should not see delete actions")
	}

	// admin screens bounce staff to the dashboard
	for _, path := range []string{"/users", "/invite"} {
		resp, _ := c.get(t, path)

		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
			t.Fatalf("staff GET %s: status = %d, Location = %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}

	resp, _ = c.postForm(t, "/projects/p1/delete", url.Values{})

	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("staff delete: status = %d", resp.StatusCode)
	}

	if c.upstream.deletedProject != "" {
		t.Fatal("staff delete must never reach the upstream API")
	}
}

func TestProjectCachingAndInvalidation(t *testing.T) {
	c := newConsole(t)
	c.login(t, "ada@example.com", "secret")

	c.get(t, "/projects")
	c.get(t, "/projects")

	if calls := c.upstream.listProjectsCalls; calls != 1 {
		t.Fatalf("expected 1 upstream list call after 2 renders, got %d", calls)
	}

	// a successful create invalidates the list and flashes a toast
	resp, _ := c.postForm(t, "/projects", url.Values{"name": {"Gemini"}, "description": {"two seats"}})

	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/projects" {
		t.Fatalf("create: status = %d", resp.StatusCode)
	}

	resp, body := c.get(t, "/projects")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("projects after create: status = %d", resp.StatusCode)
	}

	if !strings.Contains(body, "Project created successfully!") {
		t.Fatal("expected success toast after redirect")
	}

	if calls := c.upstream.listProjectsCalls; calls != 2 {
		t.Fatalf("expected refetch after create, got %d upstream calls", calls)
	}

	// the toast shows exactly once
	_, body = c.get(t, "/projects")

	if strings.Contains(body, "Project created successfully!") {
		t.Fatal("toast should not survive a second render")
	}

	// an empty form bounces back with an error flash, upstream untouched
	resp, _ = c.postForm(t, "/projects", url.Values{"name": {""}, "description": {""}})

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("invalid create: status = %d", resp.StatusCode)
	}

	_, body = c.get(t, "/projects")

	if !strings.Contains(body, "is required") {
		t.Fatal("expected validation flash")
	}
}

func TestAdminUserManagement(t *testing.T) {
	c := newConsole(t)
	c.login(t, "ada@example.com", "secret")

	resp, body := c.get(t, "/users")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "sam@example.com") {
		t.Fatalf("users list: status = %d", resp.StatusCode)
	}

	resp, _ = c.postForm(t, "/users/u2/role", url.Values{"role": {"MANAGER"}})

	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/users" {
		t.Fatalf("role update: status = %d", resp.StatusCode)
	}

	if c.upstream.lastRoleUpdate != "/users/u2/role=MANAGER" {
		t.Fatalf("upstream saw %q", c.upstream.lastRoleUpdate)
	}

	_, body = c.get(t, "/users")

	if !strings.Contains(body, "User role updated!") {
		t.Fatal("expected role update toast")
	}

	// the users query was invalidated by the mutation
	if calls := c.upstream.listUsersCalls; calls != 2 {
		t.Fatalf("expected 2 upstream user list calls, got %d", calls)
	}

	resp, _ = c.postForm(t, "/users/u2/status", url.Values{"status": {"INACTIVE"}})

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status update: status = %d", resp.StatusCode)
	}

	if c.upstream.lastStatusUpdate != "/users/u2/status=INACTIVE" {
		t.Fatalf("upstream saw %q", c.upstream.lastStatusUpdate)
	}

	// a role outside the set is rejected locally
	resp, _ = c.postForm(t, "/users/u2/role", url.Values{"role": {"WIZARD"}})

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("invalid role: status = %d", resp.StatusCode)
	}

	if strings.Contains(c.upstream.lastRoleUpdate, "WIZARD") {
		t.Fatal("invalid role must not reach the upstream API")
	}
}

func TestInviteIssuance(t *testing.T) {
	c := newConsole(t)
	c.login(t, "ada@example.com", "secret")

	resp, body := c.get(t, "/invite")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "old@example.com") {
		t.Fatalf("invite screen: status = %d", resp.StatusCode)
	}

	resp, body = c.postForm(t, "/invite", url.Values{"email": {"nina@example.com"}, "role": {"STAFF"}})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create invite: status = %d", resp.StatusCode)
	}

	if !strings.Contains(body, "Invite created! Token: inv-tok-1") {
		t.Fatal("expected invite success message with token")
	}

	if !strings.Contains(body, "/register/inv-tok-1") {
		t.Fatal("expected registration link")
	}
}

func TestRegisterViaInvite(t *testing.T) {
	c := newConsole(t)

	resp, body := c.get(t, "/register/good-token")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "/register/good-token") {
		t.Fatalf("register screen: status = %d", resp.StatusCode)
	}

	// bad token: the upstream message renders inline
	resp, body = c.postForm(t, "/register/stale-token", url.Values{"name": {"Nina"}, "password": {"pw"}})

	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "Invalid or expired invite") {
		t.Fatalf("stale token: status = %d", resp.StatusCode)
	}

	resp, body = c.postForm(t, "/register/good-token", url.Values{"name": {"Nina"}, "password": {"pw"}})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: status = %d", resp.StatusCode)
	}

	if !strings.Contains(body, "Registered successfully!") {
		t.Fatal("expected success message")
	}

	// the meta refresh sends the browser home after a beat
	if !strings.Contains(body, `content="1;url=/"`) {
		t.Fatal("expected delayed redirect home")
	}

	// registration signs the new user in
	resp, body = c.get(t, "/dashboard")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Welcome, Nina!") {
		t.Fatalf("dashboard after register: status = %d", resp.StatusCode)
	}
}

func TestNonFormPostRejected(t *testing.T) {
	c := newConsole(t)

	req, err := http.NewRequest(http.MethodPost, c.srv.URL+"/login", strings.NewReader(`{"email":"a"}`))

	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)

	if err != nil {
		t.Fatalf("do: %v", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("json post: status = %d, want 415", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	c := newConsole(t)

	if resp, _ := c.get(t, "/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status = %d", resp.StatusCode)
	}

	if resp, _ := c.get(t, "/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: status = %d", resp.StatusCode)
	}
}
