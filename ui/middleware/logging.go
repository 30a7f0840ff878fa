package middleware

import (
	"time"

	"npdstudio/internal"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request. Server errors are logged at error level.
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			logger.Error("[HTTP] %s %s -> %d (%s) %s", c.Request.Method, c.Request.URL.Path, status, latency, c.Errors.String())
		case status >= 400:
			logger.Warn("[HTTP] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, latency)
		default:
			logger.Debug("[HTTP] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, latency)
		}
	}
}
