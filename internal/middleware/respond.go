package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
)

// Error details returned in {"detail": ...} bodies
const (
	DetailNotAuthenticated = "Authentication credentials were not provided."
	DetailBadCredentials   = "No active account found with the given credentials"
	DetailTokenInvalid     = "Token is invalid or expired"
	DetailTokenRevoked     = "Token is blacklisted"
	DetailForbidden        = "You do not have permission to perform this action."
	DetailNotFound         = "Not found."
	DetailInvalidPage      = "Invalid page."
	DetailThrottled        = "Request was throttled."
	DetailInternal         = "Internal server error."
)

const authenticateHeader = `Bearer realm="api"`

// ErrorStatus maps err to the HTTP status and JSON body it is answered with
func ErrorStatus(err error) (int, any) {
	var verr *errs.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Fields
	case errors.Is(err, errs.ErrBadCredentials):
		return http.StatusUnauthorized, gin.H{"detail": DetailBadCredentials}
	case errors.Is(err, errs.ErrTokenRevoked):
		return http.StatusUnauthorized, gin.H{"detail": DetailTokenRevoked, "code": "token_not_valid"}
	case errors.Is(err, errs.ErrTokenInvalid), errors.Is(err, errs.ErrTokenExpired):
		return http.StatusUnauthorized, gin.H{"detail": DetailTokenInvalid, "code": "token_not_valid"}
	case errors.Is(err, errs.ErrNotAuthenticated):
		return http.StatusUnauthorized, gin.H{"detail": DetailNotAuthenticated}
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, gin.H{"detail": DetailForbidden}
	case errors.Is(err, errs.ErrInvalidPage):
		return http.StatusNotFound, gin.H{"detail": DetailInvalidPage}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, gin.H{"detail": DetailNotFound}
	case errors.Is(err, errs.ErrThrottled):
		return http.StatusTooManyRequests, gin.H{"detail": DetailThrottled}
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusBadRequest, gin.H{"detail": "Already exists."}
	default:
		return http.StatusInternalServerError, gin.H{"detail": DetailInternal}
	}
}

// RespondError writes err and aborts the chain. Unmapped errors are logged
// and answered with 500.
func RespondError(c *gin.Context, logger *logging.Logger, err error) {
	status, body := ErrorStatus(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", authenticateHeader)
	}
	if status == http.StatusInternalServerError {
		metrics.RecordError("http", "internal")
		l := logger.WithField("path", c.Request.URL.Path)
		if id := c.GetString(requestIDKey); id != "" {
			l = l.WithRequestID(id)
		}
		if identity := IdentityFrom(c); identity != nil {
			l = l.WithUserID(identity.ID)
		}
		l.ErrorWithErr("request failed", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
