package handler

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/skisnap/models"
)

// Snapshot returns a handler serving the snapshot file at path as written.
// Before the first write it responds 404.
func Snapshot(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Error("stat snapshot failed", "path", path, "error", err)
			}
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "no snapshot has been written yet",
				},
			})
			return
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.File(path)
	}
}
