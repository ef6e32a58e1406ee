package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLogMiddleware writes one line per handled request through the
// request-scoped logger. Unmatched routes have no template, so the raw URL
// path is logged instead; provider deliveries to a wrong or retired endpoint
// show up here as 404/405 lines.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if l, ok := c.Get("logger"); ok {
			if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
				lg.Infow("http_access",
					"method", c.Request.Method,
					"path", path,
					"status", c.Writer.Status(),
					"latency_ms", latency.Milliseconds(),
					"client_ip", c.ClientIP(),
					"bytes_out", c.Writer.Size(),
				)
			}
		}
	}
}
