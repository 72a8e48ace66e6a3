package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oshokin/tube-grabber/internal/logger"
)

// requestIDHeader carries the request identifier in responses.
const requestIDHeader = "X-Request-ID"

// requestLogger attaches a request-scoped logger to the context and logs every request.
// Progress polling is logged at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(requestIDHeader, requestID)

		ctx := logger.WithKV(c.Request.Context(), "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		kvs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorKV(ctx, "HTTP request", kvs...)
		case c.FullPath() == "/api/progress":
			logger.DebugKV(ctx, "HTTP request", kvs...)
		default:
			logger.InfoKV(ctx, "HTTP request", kvs...)
		}
	}
}
