package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aboutpage-backend/internal/services/health"
	"aboutpage-backend/internal/shared/config"
	"aboutpage-backend/internal/shared/metrics"
	"aboutpage-backend/internal/shared/server/middleware"
	"aboutpage-backend/internal/shared/server/respond"
)

// RouteRegistrar is implemented by each feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config   config.Config
	Handlers []RouteRegistrar
	Limiter  *middleware.RateLimiter
	Health   *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		checks, ok := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})

	admin := api.Group("")
	admin.Use(
		middleware.Capability(middleware.CapabilityActivatePlugins, deps.Config.RequireCapability),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   middleware.DefaultRateLimitRules(),
			Limiter: deps.Limiter,
		}),
	)
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(admin)
		}
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
