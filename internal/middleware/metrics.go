package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studijbot/studij-api/internal/service"
)

// Metrics records request duration and count per route. The templated
// route path keeps label cardinality bounded; raw paths only appear for
// requests that matched no route.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
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
