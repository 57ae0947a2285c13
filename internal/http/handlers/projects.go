package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projecthub/console/internal/api"
	"github.com/projecthub/console/internal/cache"
	"github.com/projecthub/console/internal/domain/project"
	"github.com/projecthub/console/internal/http/middlewares"
)

type ProjectsHandler struct {
	api     *api.Client
	queries *cache.Cache
	bus     *cache.Bus
}

func NewProjectsHandler(apiClient *api.Client, queries *cache.Cache, bus *cache.Bus) *ProjectsHandler {
	return &ProjectsHandler{
		api:     apiClient,
		queries: queries,
		bus:     bus,
	}
}

type projectsPage struct {
	basePage
	Projects []project.Project
	Error    string
}

type projectEditPage struct {
	basePage
	Project project.Project
	Error   string
	Success string
}

// List renders the project list plus the creation form. The fetched list is
// memoized per session and replaced wholesale on refetch.
func (h *ProjectsHandler) List(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)

	page := projectsPage{basePage: newBasePage(ctx, "Project Management")}

	key := cache.ProjectsKey(sess.ID)

	if v, ok := h.queries.Get(key); ok {
		page.Projects = v.([]project.Project)
	} else {
		projects, err := h.api.WithToken(sess.Token).ListProjects(ctx.Request.Context())

		if err != nil {
			page.Error = api.Message(err, "Could not load projects")
			ctx.HTML(http.StatusOK, "projects.tmpl", page)
			return
		}

		h.queries.Set(key, projects)
		page.Projects = projects
	}

	ctx.HTML(http.StatusOK, "projects.tmpl", page)
}

func (h *ProjectsHandler) Create(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)

	var form project.CreateForm

	if fields := BindForm(ctx, &form); fields != nil {
		SetFlash(ctx, "error", FirstMessage(fields))
		ctx.Redirect(http.StatusSeeOther, "/projects")
		return
	}

	err := h.api.WithToken(sess.Token).CreateProject(ctx.Request.Context(), form.Name, form.Description)

	if err != nil {
		SetFlash(ctx, "error", api.Message(err, "Error creating project"))
		ctx.Redirect(http.StatusSeeOther, "/projects")
		return
	}

	h.bus.Publish(cache.ProjectsKey(sess.ID))
	SetFlash(ctx, "success", "Project created successfully!")
	ctx.Redirect(http.StatusSeeOther, "/projects")
}

// Delete is immediate, no confirmation step; the server decides whether that
// means a DELETED status or a vanished record, the next fetch shows it.
func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)
	id := ctx.Param("id")

	err := h.api.WithToken(sess.Token).DeleteProject(ctx.Request.Context(), id)

	if err != nil {
		SetFlash(ctx, "error", api.Message(err, "Error deleting project"))
		ctx.Redirect(http.StatusSeeOther, "/projects")
		return
	}

	h.bus.Publish(cache.ProjectsKey(sess.ID), cache.ProjectKey(sess.ID, id))
	SetFlash(ctx, "success", "Project deleted successfully!")
	ctx.Redirect(http.StatusSeeOther, "/projects")
}

func (h *ProjectsHandler) ShowEdit(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)
	id := ctx.Param("id")

	page := projectEditPage{basePage: newBasePage(ctx, "Edit Project")}

	key := cache.ProjectKey(sess.ID, id)

	if v, ok := h.queries.Get(key); ok {
		page.Project = v.(project.Project)
	} else {
		p, err := h.api.WithToken(sess.Token).GetProject(ctx.Request.Context(), id)

		if err != nil {
			SetFlash(ctx, "error", api.Message(err, "Could not load project"))
			ctx.Redirect(http.StatusSeeOther, "/projects")
			return
		}

		h.queries.Set(key, p)
		page.Project = p
	}

	ctx.HTML(http.StatusOK, "project_edit.tmpl", page)
}

// Update sends a full replacement of name/description/status, then
// invalidates both the list and the single-project entry.
func (h *ProjectsHandler) Update(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)
	id := ctx.Param("id")

	var form project.UpdateForm

	if fields := BindForm(ctx, &form); fields != nil {
		page := projectEditPage{
			basePage: newBasePage(ctx, "Edit Project"),
			Project: project.Project{
				ID:          id,
				Name:        form.Name,
				Description: form.Description,
				Status:      form.Status,
			},
			Error: FirstMessage(fields),
		}
		ctx.HTML(http.StatusBadRequest, "project_edit.tmpl", page)
		return
	}

	err := h.api.WithToken(sess.Token).UpdateProject(ctx.Request.Context(), id, form.Name, form.Description, form.Status)

	page := projectEditPage{
		basePage: newBasePage(ctx, "Edit Project"),
		Project: project.Project{
			ID:          id,
			Name:        form.Name,
			Description: form.Description,
			Status:      form.Status,
		},
	}

	if err != nil {
		page.Error = api.Message(err, "Update failed")
		ctx.HTML(http.StatusBadRequest, "project_edit.tmpl", page)
		return
	}

	h.bus.Publish(cache.ProjectsKey(sess.ID), cache.ProjectKey(sess.ID, id))

	// success toast first, the template's meta refresh navigates back a
	// second later
	page.Success = "Project updated successfully!"
	page.Refresh = "/projects"
	ctx.HTML(http.StatusOK, "project_edit.tmpl", page)
}
