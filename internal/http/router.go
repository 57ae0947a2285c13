package http

import (
	"context"
	"html/template"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/projecthub/console/internal/api"
	"github.com/projecthub/console/internal/cache"
	"github.com/projecthub/console/internal/config"
	"github.com/projecthub/console/internal/http/handlers"
	"github.com/projecthub/console/internal/http/middlewares"
	"github.com/projecthub/console/internal/observability"
	"github.com/projecthub/console/internal/session"
)

const maxFormBytes = 64 << 10

func NewRouter(cfg config.Config, apiClient *api.Client, sessions *session.Manager, queries *cache.Cache, bus *cache.Bus, prom *observability.Prom, reg *prometheus.Registry) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.tmpl")))

	// cache entries are dropped when a mutation announces their keys
	bus.Subscribe(queries.Delete)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(otelgin.Middleware("console"))
	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}
	r.Use(middlewares.MaxBodyBytes(maxFormBytes))
	r.Use(middlewares.RequireForm())

	guard := middlewares.NewGuard(sessions)
	r.Use(guard.LoadSession())

	// health
	ping := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()
		return sessions.Ping(ctx)
	}
	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	pages := handlers.NewPagesHandler()
	auth := handlers.NewAuthHandler(apiClient, sessions, cfg)
	projects := handlers.NewProjectsHandler(apiClient, queries, bus)
	users := handlers.NewUsersHandler(apiClient, queries, bus)
	invites := handlers.NewInvitesHandler(apiClient, queries, bus)

	loginLimiter := middlewares.NewRateLimiter(cfg.LoginRateLimit, time.Duration(cfg.LoginRateWindowSeconds)*time.Second)

	// public pages
	r.GET("/", pages.Home)
	r.GET("/login", auth.ShowLogin)
	r.POST("/login", loginLimiter.ByIP(), auth.Login)
	r.POST("/logout", auth.Logout)
	r.GET("/register/:token", auth.ShowRegister)
	r.POST("/register/:token", auth.Register)

	// any signed-in user
	authed := r.Group("", middlewares.RequireSession())
	authed.GET("/dashboard", pages.Dashboard)
	authed.GET("/projects", projects.List)
	authed.POST("/projects", projects.Create)
	authed.GET("/projects/edit/:id", projects.ShowEdit)
	authed.POST("/projects/edit/:id", projects.Update)

	// admin only; any non-ADMIN identity, null included, lands on the dashboard
	admin := r.Group("", middlewares.RequireAdmin())
	admin.POST("/projects/:id/delete", projects.Delete)
	admin.GET("/users", users.List)
	admin.POST("/users/:id/role", users.UpdateRole)
	admin.POST("/users/:id/status", users.UpdateStatus)
	admin.GET("/invite", invites.List)
	admin.POST("/invite", invites.Create)

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(nethttp.StatusFound, "/login")
	})

	return r
}
