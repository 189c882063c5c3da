package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"fieldops.io/fieldops/internal/api/handlers"
	"fieldops.io/fieldops/internal/api/middleware"
	"fieldops.io/fieldops/internal/config"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/metrics"
)

// defaultAllowedOrigins covers the local dashboard dev servers.
var defaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig, reg *prometheus.Registry) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog("/api/v1/health/live", "/api/v1/health/ready", cfg.Metrics.Path),
		middleware.ErrorHandler(),
	)
	router.Use(cors.New(buildCORSConfig(cfg)))

	if cfg.Metrics.Enabled && reg != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler(reg)))
	}

	// Health checks are public.
	server.RegisterHealth(router.Group("/api/v1"))

	api := router.Group("/api/v1", middleware.JWTAuth(jwtCfg))
	server.Register(api)

	level := gin.WrapH(logger.HTTPHandler())
	api.GET("/log/level", middleware.RequireRole(middleware.RoleDispatcher), level)
	api.PUT("/log/level", middleware.RequireRole(middleware.RoleDispatcher), level)

	return router
}

// buildCORSConfig turns the server settings into a cors.Config. A wildcard
// origin is honoured only with UnsafeAllowAllOrigins, which also disables
// credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	out := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader, middleware.ReasonHeader,
		},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		out.AllowAllOrigins = true
		return out
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	out.AllowOrigins = origins
	out.AllowCredentials = cfg.Server.AllowCredentials
	return out
}
