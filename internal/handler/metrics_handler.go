package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/classtimetable/pkg/metrics"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *metrics.Metrics
}

func NewMetricsHandler(metrics *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
