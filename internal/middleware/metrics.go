package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/service"
)

// Metrics records per-route request counts and latencies. The route
// template is used as the label so record IDs and filenames do not blow up
// the cardinality; the scrape endpoint itself is not observed.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
