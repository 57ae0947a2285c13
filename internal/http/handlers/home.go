package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PagesHandler struct{}

func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

func (h *PagesHandler) Home(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "home.tmpl", struct {
		basePage
	}{newBasePage(ctx, "RBAC Project Management System")})
}

func (h *PagesHandler) Dashboard(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "dashboard.tmpl", struct {
		basePage
	}{newBasePage(ctx, "Dashboard")})
}
