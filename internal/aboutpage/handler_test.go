package aboutpage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"aboutpage-backend/internal/components"
	"aboutpage-backend/internal/pageconfig"
	"aboutpage-backend/internal/recommended"
)

func newAboutRouter(t *testing.T, theme pageconfig.ThemeArgs) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	blocks := []pageconfig.Block{{
		Key:  "recommended_actions",
		Type: pageconfig.RecommendedActionsType,
		Fields: map[string]any{"plugins": []any{
			map[string]any{"slug": "otter-blocks"},
			map[string]any{"slug": "optimole-wp"},
		}},
	}}
	engine := recommended.NewEngine(pageconfig.ExtractRecommendedItems(blocks), recommended.NewMemoryStore(), components.NewStaticProbe("optimole-wp"))
	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	ctrl := NewController(theme, blocks, engine, Options{AjaxURL: "/dismiss"})

	router := gin.New()
	NewHandler(ctrl).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestMenuEndpoint(t *testing.T) {
	router := newAboutRouter(t, neve)
	resp := get(router, "/api/v1/about/menu")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var entry MenuEntry
	if err := json.Unmarshal(resp.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.RequiredActions != 1 {
		t.Fatalf("expected 1 required action, got %d", entry.RequiredActions)
	}
}

func TestMenuEndpointUnregisteredTheme(t *testing.T) {
	router := newAboutRouter(t, pageconfig.ThemeArgs{Name: "Neve"})
	if resp := get(router, "/api/v1/about/menu"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := get(router, "/api/v1/about/page"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestAssetsEndpoint(t *testing.T) {
	router := newAboutRouter(t, neve)

	if resp := get(router, "/api/v1/about/assets?screen=dashboard"); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on other screen, got %d", resp.Code)
	}
	resp := get(router, "/api/v1/about/assets?screen=appearance_page_neve-welcome")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Obj ScriptPayload `json:"tiAboutPageObject"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Obj.NrActionsRequired != 1 || body.Obj.AjaxURL != "/dismiss" {
		t.Fatalf("unexpected payload %+v", body.Obj)
	}
}

func TestPageEndpoint(t *testing.T) {
	router := newAboutRouter(t, neve)
	resp := get(router, "/api/v1/about/page")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var view struct {
		Tabs []struct {
			Items []struct {
				ID          string `json:"id"`
				Outstanding bool   `json:"outstanding"`
			} `json:"items"`
		} `json:"tabs"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Tabs) != 1 || len(view.Tabs[0].Items) != 2 {
		t.Fatalf("unexpected view %s", resp.Body.String())
	}
	if !view.Tabs[0].Items[0].Outstanding || view.Tabs[0].Items[1].Outstanding {
		t.Fatalf("unexpected outstanding flags %s", resp.Body.String())
	}
}
