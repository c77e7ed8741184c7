package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civiq/rag-sidecar/internal/logger"
)

// RequestLogger emits one structured log line per request, tagged with the
// request id RequestIDMiddleware assigned, the way the teacher's audit
// middleware tagged every write with a correlation id.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
