package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/skisnap/api/handler"
	"github.com/use-agent/skisnap/api/middleware"
	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/snapshot"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Public:  RateLimit
//	Refresh: Auth (if enabled) → RateLimit
//
// Health endpoint is outside rate limiting so monitoring probes always work.
// Runs started by the refresh endpoint use ctx, not the request context.
// version is reported by the health endpoint.
func NewRouter(ctx context.Context, runner *snapshot.Runner, cfg *config.Config, version string, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	limit := middleware.RateLimit(cfg.RateLimit)

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(runner, version, startTime))

	// The snapshot is served at the same path it has in the docs tree.
	r.GET("/api/resort_data.json", limit, handler.Snapshot(runner.Path()))
	v1.GET("/snapshot", limit, handler.Snapshot(runner.Path()))

	if !cfg.Auth.Enabled || len(cfg.Auth.APIKeys) > 0 {
		refresh := v1.Group("")
		if cfg.Auth.Enabled {
			refresh.Use(middleware.Auth(cfg.Auth.APIKeys))
		}
		refresh.Use(limit)
		refresh.POST("/refresh", handler.Refresh(ctx, runner))
	}

	return r
}
