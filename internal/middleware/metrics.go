package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petify/petify-api/pkg/metrics"
)

// Metrics records request count, latency and 5xx responses per route
// template, so /api/bookings/:id is one series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		code := strconv.Itoa(status)

		m.RequestTotal.WithLabelValues(c.Request.Method, route, code).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route, code).Observe(time.Since(start).Seconds())
		if status >= 500 {
			m.RequestErrors.WithLabelValues(c.Request.Method, route).Inc()
		}
	}
}
