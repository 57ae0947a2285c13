package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/api"
	"github.com/projecthub/console/internal/cache"
	"github.com/projecthub/console/internal/domain/user"
	"github.com/projecthub/console/internal/http/middlewares"
)

type UsersHandler struct {
	api     *api.Client
	queries *cache.Cache
	bus     *cache.Bus
}

func NewUsersHandler(apiClient *api.Client, queries *cache.Cache, bus *cache.Bus) *UsersHandler {
	return &UsersHandler{
		api:     apiClient,
		queries: queries,
		bus:     bus,
	}
}

type usersPage struct {
	basePage
	Users []user.User
	Error string
	Roles []string
}

type roleForm struct {
	Role string `form:"role" binding:"required,oneof=ADMIN MANAGER STAFF"`
}

type statusForm struct {
	Status string `form:"status" binding:"required,oneof=ACTIVE INACTIVE"`
}

func (h *UsersHandler) List(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)

	page := usersPage{
		basePage: newBasePage(ctx, "User Management"),
		Roles:    []string{user.RoleAdmin, user.RoleManager, user.RoleStaff},
	}

	key := cache.UsersKey(sess.ID)

	if v, ok := h.queries.Get(key); ok {
		page.Users = v.([]user.User)
	} else {
		users, err := h.api.WithToken(sess.Token).ListUsers(ctx.Request.Context())

		if err != nil {
			page.Error = api.Message(err, "Could not load users")
			ctx.HTML(http.StatusOK, "users.tmpl", page)
			return
		}

		h.queries.Set(key, users)
		page.Users = users
	}

	ctx.HTML(http.StatusOK, "users.tmpl", page)
}

// UpdateRole and UpdateStatus are two independent calls, never batched;
// each invalidates the users list on its own.

func (h *UsersHandler) UpdateRole(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)
	id := ctx.Param("id")

	var form roleForm

	if fields := BindForm(ctx, &form); fields != nil {
		SetFlash(ctx, "error", FirstMessage(fields))
		ctx.Redirect(http.StatusSeeOther, "/users")
		return
	}

	err := h.api.WithToken(sess.Token).UpdateUserRole(ctx.Request.Context(), id, form.Role)

	if err != nil {
		SetFlash(ctx, "error", api.Message(err, "Error updating role"))
		ctx.Redirect(http.StatusSeeOther, "/users")
		return
	}

	h.bus.Publish(cache.UsersKey(sess.ID))
	SetFlash(ctx, "success", "User role updated!")
	ctx.Redirect(http.StatusSeeOther, "/users")
}

func (h *UsersHandler) UpdateStatus(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)
	id := ctx.Param("id")

	var form statusForm

	if fields := BindForm(ctx, &form); fields != nil {
		SetFlash(ctx, "error", FirstMessage(fields))
		ctx.Redirect(http.StatusSeeOther, "/users")
		return
	}

	err := h.api.WithToken(sess.Token).UpdateUserStatus(ctx.Request.Context(), id, form.Status)

	if err != nil {
		SetFlash(ctx, "error", api.Message(err, "Error updating status"))
		ctx.Redirect(http.StatusSeeOther, "/users")
		return
	}

	h.bus.Publish(cache.UsersKey(sess.ID))
	SetFlash(ctx, "success", "User status updated!")
	ctx.Redirect(http.StatusSeeOther, "/users")
}
