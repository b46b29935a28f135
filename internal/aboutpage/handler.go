package aboutpage

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"aboutpage-backend/internal/shared/server/middleware"
	"aboutpage-backend/internal/shared/server/respond"
)

type Handler struct {
	ctrl atomic.Pointer[Controller]
}

func NewHandler(ctrl *Controller) *Handler {
	h := &Handler{}
	h.ctrl.Store(ctrl)
	return h
}

// Swap installs ctrl for subsequent requests.
func (h *Handler) Swap(ctrl *Controller) {
	h.ctrl.Store(ctrl)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/about/menu", h.menu)
	rg.GET("/about/page", h.page)
	rg.GET("/about/assets", h.assets)
}

func (h *Handler) menu(c *gin.Context) {
	entry := h.ctrl.Load().MenuEntry(c.Request.Context())
	if entry == nil {
		respond.Error(c, http.StatusNotFound, "not_registered", "theme name and slug are required", nil)
		return
	}
	c.Set(middleware.RequiredActionsKey, entry.RequiredActions)
	respond.OK(c, entry)
}

func (h *Handler) page(c *gin.Context) {
	ctrl := h.ctrl.Load()
	if !ctrl.Registered() {
		respond.Error(c, http.StatusNotFound, "not_registered", "theme name and slug are required", nil)
		return
	}
	view, err := ctrl.RenderView(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "render_failed", "failed to load recommended actions", nil)
		return
	}
	c.Set(middleware.RequiredActionsKey, view.RequiredActions)
	respond.OK(c, view)
}

// assets answers 204 for any screen other than the about page.
func (h *Handler) assets(c *gin.Context) {
	payload := h.ctrl.Load().ScriptPayload(c.Request.Context(), c.Query("screen"))
	if payload == nil {
		respond.NoContent(c)
		return
	}
	respond.OK(c, gin.H{"tiAboutPageObject": payload})
}
