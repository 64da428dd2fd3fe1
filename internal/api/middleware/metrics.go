package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MacJediWizard/subdash/internal/metrics"
)

// Metrics records request counts and latencies. Routes are labelled by
// their registered pattern so ids do not explode label cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}
