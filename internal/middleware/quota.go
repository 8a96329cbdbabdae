package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/quota"
)

// Admit charges the request to its caller's daily quota and answers 429
// once the ceiling is exceeded. It must run after Authenticate.
func Admit(tracker *quota.Tracker, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)

		d, err := tracker.Admit(c.Request.Context(), caller)
		if err != nil {
			RespondError(c, logger, err)
			return
		}

		metrics.RecordQuotaDecision(string(caller.Class), d.Allowed)
		logger.LogQuotaDecision(caller.Key, string(caller.Class), d.Count, d.Limit, d.Allowed)

		if !d.Allowed {
			throttle(c, d.RetryAfterSeconds())
			return
		}
		c.Next()
	}
}

func throttle(c *gin.Context, retryAfter int64) {
	c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"detail": fmt.Sprintf("%s Expected available in %d seconds.", DetailThrottled, retryAfter),
	})
}
