package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
)

const requestIDHeader = "X-Request-ID"
const requestIDContextKey = "request_id"

// RequestID attaches a unique request id to each request for tracing.
// An incoming X-Request-ID header is honored when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// Echo the id back and keep it for handlers downstream
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Set(requestIDContextKey, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request ID from the Gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

// RequestLogger logs HTTP requests with timing information
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.InfoWith("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", GetRequestID(c),
		)
	}
}
