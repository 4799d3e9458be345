package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by the tenancy registry.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a JSON health check response.
// Postgres down is unhealthy (503). Redis down only degrades the service: the
// cache is bypassed and requests go to the database.
func Health(db Pinger, c *cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		pctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if db.Ping(pctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		switch {
		case !c.Enabled():
			redisStatus = "disabled"
		case c.Ping(pctx) != nil:
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		ctx.JSON(status, gin.H{
			"ok":          status == http.StatusOK,
			"degraded":    redisStatus != "connected",
			"db":          dbStatus,
			"redis":       redisStatus,
			"cache_ready": c.Ready(),
		})
	}
}
