package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggerMiddleware builds a request-scoped logger carrying the trace
// ID and stores it in both gin.Context and the request's context.Context so
// services reached through either can pick it up. The trace ID is also
// mirrored to the X-Request-ID response header, which is what gets quoted
// back when a provider delivery needs to be chased through the logs.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := base
		if tid := c.GetString("traceID"); tid != "" {
			lg = base.With("trace_id", tid)
			c.Writer.Header().Set("X-Request-ID", tid)
		}

		c.Set("logger", lg)
		ctx := context.WithValue(c.Request.Context(), "logger", lg)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
