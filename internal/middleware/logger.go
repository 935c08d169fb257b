package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a Gin middleware that logs each request using zap. Health
// probes on /ping are skipped to keep the log readable.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/ping" {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		// The route template groups log lines per endpoint; raw path only
		// when no route matched.
		route := c.FullPath()
		if route == "" {
			route = path
		}
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
