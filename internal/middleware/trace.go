package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/tracing"
)

// Trace starts a server span per request and stores it in the request context
func Trace(tracer opentracing.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		operation := c.FullPath()
		if operation == "" {
			operation = c.Request.URL.Path
		}

		span, ctx := tracing.StartServerSpan(tracer, c.Request, fmt.Sprintf("%s %s", c.Request.Method, operation))
		defer tracing.FinishSpan(span)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		ext.HTTPStatusCode.Set(span, uint16(status))
		if status >= 500 {
			ext.Error.Set(span, true)
		}
		if err := c.Errors.Last(); err != nil {
			tracing.LogError(span, err.Err)
		}
		if identity := IdentityFrom(c); identity != nil {
			tracing.SetTag(span, "user.id", identity.ID)
		}
	}
}
