package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/session"
)

// SessionCookie is the browser-side half of the session store.
const SessionCookie = "console_session"

// SessionResolver rehydrates a session from its signed cookie value. Small
// interface so tests can fake it.
type SessionResolver interface {
	Resolve(ctx context.Context, cookie string) (session.Session, error)
}

type Guard struct {
	sessions SessionResolver
}

func NewGuard(sessions SessionResolver) *Guard {
	return &Guard{sessions: sessions}
}

// LoadSession resolves the cookie once per request and stashes the session
// on the context. Anything unresolvable means logged out; the request
// continues anonymously.
func (g *Guard) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)

		if err != nil || raw == "" {
			c.Next()
			return
		}

		sess, err := g.sessions.Resolve(c.Request.Context(), raw)

		if err != nil {
			c.Next()
			return
		}

		c.Set(ctxSession, sess)
		c.Next()
	}
}

// RequireSession permits authenticated-only screens; anonymous navigation is
// redirected to the login screen.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFromContext(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin permits admin-only screens. Any non-ADMIN identity, a null
// one included, lands on the dashboard instead.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromContext(c)

		if !ok || !sess.User.IsAdmin() {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}

		c.Next()
	}
}

func SessionFromContext(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(ctxSession)
	if !ok {
		return session.Session{}, false
	}

	sess, ok := v.(session.Session)
	return sess, ok
}
