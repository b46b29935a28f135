package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCapabilityRouter(enforce bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Capability(CapabilityActivatePlugins, enforce))
	router.GET("/api/v1/about/menu", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserIDFromContext(c)})
	})
	router.OPTIONS("/api/v1/about/menu", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestCapabilityAllowsOptionsWithoutIdentity(t *testing.T) {
	router := newCapabilityRouter(true)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/about/menu", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestCapabilityRejectsMissingCapability(t *testing.T) {
	router := newCapabilityRouter(true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/about/menu", nil)
	req.Header.Set("X-User-Id", "1")
	req.Header.Set("X-Capabilities", "edit_posts")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestCapabilityAcceptsCaseInsensitiveList(t *testing.T) {
	router := newCapabilityRouter(true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/about/menu", nil)
	req.Header.Set("X-User-Id", "1")
	req.Header.Set("X-Capabilities", "edit_posts, Activate_Plugins")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestCapabilityNotEnforcedPassesThrough(t *testing.T) {
	router := newCapabilityRouter(false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/about/menu", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
