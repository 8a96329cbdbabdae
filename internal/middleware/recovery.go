package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
)

// Recover turns a panic in a later stage into a logged 500
func Recover(logger *logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		RespondError(c, logger, fmt.Errorf("panic: %v", rec))
	})
}
