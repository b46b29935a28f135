package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aboutpage-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	ItemIDKey          = "itemId"
	RequiredActionsKey = "requiredActions"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
		}
		if itemID, ok := c.Get(ItemIDKey); ok {
			fields["item_id"] = itemID
		}
		if n, ok := c.Get(RequiredActionsKey); ok {
			fields["required_actions"] = n
		}
		telemetry.Info("request.complete", fields)
	}
}
