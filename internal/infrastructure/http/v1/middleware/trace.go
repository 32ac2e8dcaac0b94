package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dapur/internal/core/appctx"
)

const HeaderRequestID = "X-Request-ID"

// Trace middleware extracts or generates a request ID and attaches it to
// the request context for correlation.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
