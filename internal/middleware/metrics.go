package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-sync/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, so arbitrary
// paths never become series of their own.
const unmatchedRoute = "unmatched"

// Metrics records latency and status per route template, e.g.
// /api/v1/class-schedules/:grade/:classNumber/:field rather than each class.
// Requests for skipPaths, typically the scrape and liveness endpoints, are not observed.
func Metrics(metrics *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skipped[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
