package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/api"
	"github.com/projecthub/console/internal/cache"
	"github.com/projecthub/console/internal/domain/invite"
	"github.com/projecthub/console/internal/domain/user"
	"github.com/projecthub/console/internal/http/middlewares"
)

type InvitesHandler struct {
	api     *api.Client
	queries *cache.Cache
	bus     *cache.Bus
}

func NewInvitesHandler(apiClient *api.Client, queries *cache.Cache, bus *cache.Bus) *InvitesHandler {
	return &InvitesHandler{
		api:     apiClient,
		queries: queries,
		bus:     bus,
	}
}

type invitesPage struct {
	basePage
	Invites []invite.Invite
	Roles   []string
	Error   string
	Success string
	// RegistrationLink is shown once, right after an invite is created.
	RegistrationLink string
	Email            string
	Role             string
}

func (h *InvitesHandler) newPage(ctx *gin.Context) invitesPage {
	return invitesPage{
		basePage: newBasePage(ctx, "Invite Users"),
		Roles:    []string{user.RoleAdmin, user.RoleManager, user.RoleStaff},
		Role:     user.RoleStaff,
	}
}

func (h *InvitesHandler) List(ctx *gin.Context) {
	page := h.newPage(ctx)

	h.loadInvites(ctx, &page)

	ctx.HTML(http.StatusOK, "invite.tmpl", page)
}

// Create issues an invite, then shows the registration link and clears the
// input. Accepted invites stay listed; there is no accepted-state refresh.
func (h *InvitesHandler) Create(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)

	page := h.newPage(ctx)

	var form invite.CreateForm

	if fields := BindForm(ctx, &form); fields != nil {
		page.Error = FirstMessage(fields)
		page.Email = form.Email
		h.loadInvites(ctx, &page)
		ctx.HTML(http.StatusBadRequest, "invite.tmpl", page)
		return
	}

	created, err := h.api.WithToken(sess.Token).CreateInvite(ctx.Request.Context(), form.Email, form.Role)

	if err != nil {
		page.Error = api.Message(err, "Failed to create invite")
		page.Email = form.Email
		page.Role = form.Role
		h.loadInvites(ctx, &page)
		ctx.HTML(http.StatusBadRequest, "invite.tmpl", page)
		return
	}

	h.bus.Publish(cache.InvitesKey(sess.ID))

	page.Success = "Invite created! Token: " + created.Token
	page.RegistrationLink = "/register/" + created.Token

	h.loadInvites(ctx, &page)
	ctx.HTML(http.StatusOK, "invite.tmpl", page)
}

func (h *InvitesHandler) loadInvites(ctx *gin.Context, page *invitesPage) {
	sess, _ := middlewares.SessionFromContext(ctx)

	key := cache.InvitesKey(sess.ID)

	if v, ok := h.queries.Get(key); ok {
		page.Invites = v.([]invite.Invite)
		return
	}

	invites, err := h.api.WithToken(sess.Token).ListInvites(ctx.Request.Context())

	if err != nil {
		if page.Error == "" {
			page.Error = api.Message(err, "Could not load invites")
		}
		return
	}

	h.queries.Set(key, invites)
	page.Invites = invites
}
