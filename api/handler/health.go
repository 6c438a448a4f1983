package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/session"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Health returns a handler for GET /healthz.
func Health(store *session.Store, upstream string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "healthy",
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Store:    store.Stats(),
			Upstream: upstream,
			Version:  Version,
		})
	}
}
