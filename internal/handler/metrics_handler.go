package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-sync/internal/service"
	"github.com/noah-isme/sma-timetable-sync/pkg/response"
)

type readinessChecker interface {
	Ready(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics   *service.MetricsService
	readiness readinessChecker
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, readiness readinessChecker) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, readiness: readiness}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the schedule store answers.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.readiness != nil {
		if err := h.readiness.Ready(c.Request.Context()); err != nil {
			response.Error(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
