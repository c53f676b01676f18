package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"studio-recon/pkg/logger"
)

// Logger emits one structured line per request. Health probes are skipped
// to keep the log readable between reconciliation runs.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger.GetLogger().WithFields(map[string]interface{}{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"errors":     c.Errors.String(),
		}).Info("Request processed")
	}
}
