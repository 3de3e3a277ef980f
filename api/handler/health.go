package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/skisnap/models"
	"github.com/use-agent/skisnap/snapshot"
)

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the most recent run failed to write its snapshot.
func Health(runner *snapshot.Runner, version string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		run := runner.Status()

		status := "ok"
		if run.LastError != "" {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Resorts: len(runner.Registry()),
			Run:     run,
			Version: version,
		})
	}
}
