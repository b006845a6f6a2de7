package server

import (
	"context"
	"net/http"
	"time"

	"carpool/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check is one readiness probe, such as a database or Redis ping.
type Check func(ctx context.Context) error

type QueueLengther interface {
	QueueLength(ctx context.Context) int64
}

type QueueResponse struct {
	Pending int64 `json:"pending" example:"3"`
}

// @Summary      Health check
// @Description  Reports "degraded" with 503 when a dependency does not answer.
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func Health(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "degraded", Failed: failed})
			return
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	}
}

// @Summary      Notification backlog
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} QueueResponse
// @Router       /admin/notifications/queue [get]
func NotificationQueue(q QueueLengther) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, QueueResponse{Pending: q.QueueLength(c.Request.Context())})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
