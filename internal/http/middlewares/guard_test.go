package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/domain/user"
	"github.com/projecthub/console/internal/http/middlewares"
	"github.com/projecthub/console/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	resolveFn func(ctx context.Context, cookie string) (session.Session, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, cookie string) (session.Session, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, cookie)
	}

	return session.Session{}, session.ErrNotFound
}

func sessionFor(role string) session.Session {
	return session.Session{
		ID:    "s1",
		Token: "t",
		User:  user.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: role, Status: user.StatusActive},
	}
}

func guardRouter(resolver middlewares.SessionResolver) *gin.Engine {
	r := gin.New()
	guard := middlewares.NewGuard(resolver)
	r.Use(guard.LoadSession())

	r.GET("/dashboard", middlewares.RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard")
	})

	r.GET("/users", middlewares.RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, "users")
	})

	return r
}

func TestGuardRedirects(t *testing.T) {
	tests := []struct {
		name         string
		cookie       string
		resolver     *fakeResolver
		path         string
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "anonymous to protected screen",
			resolver:     &fakeResolver{},
			path:         "/dashboard",
			wantStatus:   http.StatusFound,
			wantLocation: "/login",
		},
		{
			name:   "unresolvable cookie counts as anonymous",
			cookie: "stale",
			resolver: &fakeResolver{resolveFn: func(ctx context.Context, cookie string) (session.Session, error) {
				return session.Session{}, session.ErrNotFound
			}},
			path:         "/dashboard",
			wantStatus:   http.StatusFound,
			wantLocation: "/login",
		},
		{
			name:   "signed in reaches protected screen",
			cookie: "good",
			resolver: &fakeResolver{resolveFn: func(ctx context.Context, cookie string) (session.Session, error) {
				return sessionFor(user.RoleStaff), nil
			}},
			path:       "/dashboard",
			wantStatus: http.StatusOK,
		},
		{
			name:   "staff bounced off admin screen",
			cookie: "good",
			resolver: &fakeResolver{resolveFn: func(ctx context.Context, cookie string) (session.Session, error) {
				return sessionFor(user.RoleStaff), nil
			}},
			path:         "/users",
			wantStatus:   http.StatusFound,
			wantLocation: "/dashboard",
		},
		{
			name:   "manager bounced off admin screen",
			cookie: "good",
			resolver: &fakeResolver{resolveFn: func(ctx context.Context, cookie string) (session.Session, error) {
				return sessionFor(user.RoleManager), nil
			}},
			path:         "/users",
			wantStatus:   http.StatusFound,
			wantLocation: "/dashboard",
		},
		{
			name:         "anonymous counts as non-admin, lands on dashboard",
			resolver:     &fakeResolver{},
			path:         "/users",
			wantStatus:   http.StatusFound,
			wantLocation: "/dashboard",
		},
		{
			name:   "admin reaches admin screen",
			cookie: "good",
			resolver: &fakeResolver{resolveFn: func(ctx context.Context, cookie string) (session.Session, error) {
				return sessionFor(user.RoleAdmin), nil
			}},
			path:       "/users",
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := guardRouter(tc.resolver)

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)

			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: tc.cookie})
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}

			if tc.wantLocation != "" {
				if loc := w.Header().Get("Location"); loc != tc.wantLocation {
					t.Fatalf("Location = %q, want %q", loc, tc.wantLocation)
				}
			}
		})
	}
}

func TestSessionFromContext(t *testing.T) {
	resolver := &fakeResolver{resolveFn: func(ctx context.Context, cookie string) (session.Session, error) {
		return sessionFor(user.RoleAdmin), nil
	}}

	r := gin.New()
	guard := middlewares.NewGuard(resolver)
	r.Use(guard.LoadSession())

	r.GET("/whoami", func(c *gin.Context) {
		sess, ok := middlewares.SessionFromContext(c)

		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}

		c.String(http.StatusOK, sess.User.Email)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: "good"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "ada@example.com" {
		t.Fatalf("body = %q, want identity email", w.Body.String())
	}

	// no cookie means anonymous, not an error
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if w.Body.String() != "anonymous" {
		t.Fatalf("body = %q, want anonymous", w.Body.String())
	}
}
