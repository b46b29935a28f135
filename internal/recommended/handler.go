package recommended

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"aboutpage-backend/internal/shared/server/middleware"
	"aboutpage-backend/internal/shared/server/respond"
)

// ResponseTag is the first element of the dismiss response tuple; the admin
// script keys its badge update on it.
const ResponseTag = "required_actions"

// Handler serves the engine currently installed; Swap replaces it when the
// page configuration is reloaded.
type Handler struct {
	engine atomic.Pointer[Engine]
}

func NewHandler(engine *Engine) *Handler {
	h := &Handler{}
	h.engine.Store(engine)
	return h
}

// Swap installs engine for subsequent requests.
func (h *Handler) Swap(engine *Engine) {
	h.engine.Store(engine)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/about/recommended-actions", h.status)
	rg.POST("/about/recommended-actions/dismiss", h.dismiss)
}

func (h *Handler) status(c *gin.Context) {
	engine := h.engine.Load()
	if engine == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	n := engine.ComputeOutstanding(c.Request.Context())
	c.Set(middleware.RequiredActionsKey, n)
	respond.OK(c, gin.H{ResponseTag: n})
}

// dismiss takes a form-encoded slug and answers ["required_actions", n].
func (h *Handler) dismiss(c *gin.Context) {
	engine := h.engine.Load()
	if engine == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	slug := strings.TrimSpace(c.PostForm("slug"))
	c.Set(middleware.ItemIDKey, slug)

	n, err := engine.Dismiss(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			respond.Error(c, http.StatusBadRequest, "invalid_argument", "slug is required", gin.H{"field": "slug"})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "store_unavailable", "dismissal was not saved", nil)
		return
	}
	c.Set(middleware.RequiredActionsKey, n)
	respond.OK(c, []any{ResponseTag, n})
}
