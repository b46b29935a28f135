package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorWritesEnvelopeAndAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reached := false
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		Error(c, http.StatusBadRequest, "invalid_argument", "slug is required", gin.H{"field": "slug"})
	}, func(c *gin.Context) {
		reached = true
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if reached {
		t.Fatalf("expected chain to abort")
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "invalid_argument" || body.Error.Message != "slug is required" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
