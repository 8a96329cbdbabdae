package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// Authenticator resolves an access token to an identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. ok is false when the header is absent or uses another scheme.
func bearerToken(header string) (token string, ok bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the bearer token of the request, if any. Requests
// without one continue as anonymous. A token that fails verification also
// continues as anonymous, so the request is still charged to the anonymous
// quota; with strict set the failure is kept for RequireIdentity to answer.
func Authenticate(a Authenticator, strict bool, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			SetIdentity(c, nil)
			c.Next()
			return
		}

		identity, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errs.IsAuthError(err) {
				RespondError(c, logger, err)
				return
			}
			if strict {
				c.Set(authErrorKey, err)
			} else {
				logger.WithError(err).Debug("ignoring bad bearer token on public route")
			}
			identity = nil
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests with 401. A bearer token
// rejected by Authenticate is reported instead of the generic error.
func RequireIdentity(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == nil {
			err := errs.ErrNotAuthenticated
			if v, ok := c.Get(authErrorKey); ok {
				err = v.(error)
			}
			RespondError(c, logger, err)
			return
		}
		c.Next()
	}
}
