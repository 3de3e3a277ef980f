package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/skisnap/models"
	"github.com/use-agent/skisnap/snapshot"
)

// Refresh returns a handler for POST /api/v1/refresh.
// It starts a run in the background and responds 202, or 409 when a run
// is already in progress.
func Refresh(ctx context.Context, runner *snapshot.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !runner.Trigger(ctx) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    models.ErrCodeRunInProgress,
					Message: "a snapshot run is already in progress",
				},
			})
			return
		}
		c.JSON(http.StatusAccepted, models.RefreshResponse{Status: "started"})
	}
}
