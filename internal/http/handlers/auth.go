package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/api"
	"github.com/projecthub/console/internal/config"
	"github.com/projecthub/console/internal/http/middlewares"
	"github.com/projecthub/console/internal/session"
)

type AuthHandler struct {
	api      *api.Client
	sessions *session.Manager
	cfg      config.Config
}

func NewAuthHandler(apiClient *api.Client, sessions *session.Manager, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		api:      apiClient,
		sessions: sessions,
		cfg:      cfg,
	}
}

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type registerForm struct {
	Name     string `form:"name" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type loginPage struct {
	basePage
	Error string
	Email string
}

type registerPage struct {
	basePage
	Error   string
	Success string
	Name    string
	Token   string
}

func (h *AuthHandler) ShowLogin(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.tmpl", loginPage{basePage: newBasePage(ctx, "Login")})
}

// Login submits credentials upstream; on success the session store replaces
// whatever pair it held and the browser is sent home. On failure the error
// renders inline and the session is untouched.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var form loginForm

	if fields := BindForm(ctx, &form); fields != nil {
		ctx.HTML(http.StatusBadRequest, "login.tmpl", loginPage{
			basePage: newBasePage(ctx, "Login"),
			Error:    FirstMessage(fields),
			Email:    form.Email,
		})
		return
	}

	identity, credential, err := h.api.Login(ctx.Request.Context(), form.Email, form.Password)

	if err != nil {
		ctx.HTML(http.StatusUnauthorized, "login.tmpl", loginPage{
			basePage: newBasePage(ctx, "Login"),
			Error:    api.Message(err, "Login failed"),
			Email:    form.Email,
		})
		return
	}

	sess, cookie, err := h.sessions.Login(ctx.Request.Context(), identity, credential)

	if err != nil {
		ctx.HTML(http.StatusInternalServerError, "login.tmpl", loginPage{
			basePage: newBasePage(ctx, "Login"),
			Error:    "Could not create session",
			Email:    form.Email,
		})
		return
	}

	h.setSessionCookie(ctx, cookie, sess.ExpiresAt)
	ctx.Redirect(http.StatusSeeOther, "/")
}

// Logout clears both the durable record and the cookie. Safe to call while
// logged out.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if sess, ok := middlewares.SessionFromContext(ctx); ok {
		_ = h.sessions.Logout(ctx.Request.Context(), sess.ID)
	}

	h.clearSessionCookie(ctx)
	ctx.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) ShowRegister(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "register.tmpl", registerPage{
		basePage: newBasePage(ctx, "Complete Registration"),
		Token:    inviteToken(ctx),
	})
}

// Register completes an invite. A missing token fails locally, before any
// network call is made.
func (h *AuthHandler) Register(ctx *gin.Context) {
	token := inviteToken(ctx)

	page := registerPage{
		basePage: newBasePage(ctx, "Complete Registration"),
		Token:    token,
	}

	if token == "" {
		page.Error = "Invalid or missing token"
		ctx.HTML(http.StatusBadRequest, "register.tmpl", page)
		return
	}

	var form registerForm

	if fields := BindForm(ctx, &form); fields != nil {
		page.Error = FirstMessage(fields)
		ctx.HTML(http.StatusBadRequest, "register.tmpl", page)
		return
	}

	page.Name = form.Name

	identity, credential, err := h.api.RegisterViaInvite(ctx.Request.Context(), token, form.Name, form.Password)

	if err != nil {
		page.Error = api.Message(err, "Registration failed")
		ctx.HTML(http.StatusBadRequest, "register.tmpl", page)
		return
	}

	sess, cookie, err := h.sessions.Login(ctx.Request.Context(), identity, credential)

	if err != nil {
		page.Error = "Could not create session"
		ctx.HTML(http.StatusInternalServerError, "register.tmpl", page)
		return
	}

	h.setSessionCookie(ctx, cookie, sess.ExpiresAt)

	// success message first, then the template's meta refresh sends the
	// browser home after a second
	page.Identity = &sess.User
	page.Success = "Registered successfully!"
	page.Refresh = "/"
	ctx.HTML(http.StatusOK, "register.tmpl", page)
}

// the invite token arrives on the path, or as ?token= for mailed links
func inviteToken(ctx *gin.Context) string {
	if token := ctx.Param("token"); token != "" {
		return token
	}

	return ctx.Query("token")
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, value string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		middlewares.SessionCookie,
		value,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.SessionCookie,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}
