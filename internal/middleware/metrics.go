package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/classtimetable/pkg/metrics"
)

// Metrics returns middleware that records request counts and latencies.
func Metrics(collector *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if collector == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		collector.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
