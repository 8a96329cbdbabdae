package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags the request with an id, then logs and measures it once
// the chain returns. A client supplied X-Request-ID is kept.
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		var caller string
		if _, ok := c.Get(callerKey); ok {
			caller = CallerFrom(c).Key
		}

		logger.WithRequestID(requestID).LogHTTPRequest(c.Request.Method, path, c.ClientIP(), caller, status, latency)
		metrics.RecordHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(status), latency.Seconds())
	}
}
