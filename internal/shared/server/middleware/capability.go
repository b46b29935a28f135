package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aboutpage-backend/internal/shared/server/respond"
)

const (
	userIDKey     = "userId"
	capabilityKey = "capabilities"

	// CapabilityActivatePlugins gates the about page, matching the host's
	// admin capability for managing plugins.
	CapabilityActivatePlugins = "activate_plugins"
)

// Capability reads the admin identity forwarded by the host (X-User-Id,
// X-Capabilities) and, when required, rejects requests lacking capability.
func Capability(required string, enforce bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if userID := strings.TrimSpace(c.GetHeader("X-User-Id")); userID != "" {
			c.Set(userIDKey, userID)
		}
		caps := splitCapabilities(c.GetHeader("X-Capabilities"))
		c.Set(capabilityKey, caps)

		if enforce && required != "" {
			if _, ok := caps[required]; !ok {
				respond.Error(c, http.StatusForbidden, "forbidden", "missing capability "+required, nil)
				return
			}
		}
		c.Next()
	}
}

// UserIDFromContext fetches the admin user ID forwarded by the host.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

func splitCapabilities(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}
