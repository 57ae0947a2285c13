package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/domain/user"
	"github.com/projecthub/console/internal/http/middlewares"
)

// basePage carries what every screen template needs: the current identity
// (nil when logged out), the pending flash and the active path for navbar
// highlighting.
type basePage struct {
	Title    string
	Path     string
	Identity *user.User
	Flash    *Flash
	// Refresh, when set, makes the page navigate there after a second
	// (meta refresh); used by the post-register and post-update screens.
	Refresh string
}

func newBasePage(c *gin.Context, title string) basePage {
	p := basePage{
		Title: title,
		Path:  c.Request.URL.Path,
		Flash: TakeFlash(c),
	}

	if sess, ok := middlewares.SessionFromContext(c); ok {
		identity := sess.User
		p.Identity = &identity
	}

	return p
}
