package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vic9511/hotmart-subscriptions-sync/pkg/tool"
)

// TraceMiddleware assigns every delivery a trace ID so webhook processing can
// be correlated across log lines and the event audit trail. An inbound
// X-Request-ID wins; otherwise a time-ordered UUID is generated.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set("traceID", traceID)
		ctx := context.WithValue(c.Request.Context(), "traceID", traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
