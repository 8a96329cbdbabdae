package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/quota"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

const (
	identityKey  = "identity"
	callerKey    = "quota_caller"
	requestIDKey = "request_id"
	authErrorKey = "auth_error"
)

// SetIdentity records the authenticated identity and charges the request to
// it. A nil identity marks the request anonymous.
func SetIdentity(c *gin.Context, identity *models.Identity) {
	if identity == nil {
		c.Set(callerKey, quota.AnonymousCaller(c.ClientIP()))
		return
	}
	c.Set(identityKey, identity)
	c.Set(callerKey, quota.UserCaller(identity.ID))
}

// IdentityFrom returns the identity resolved by Authenticate, or nil
func IdentityFrom(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*models.Identity)
	return identity
}

// CallerFrom returns the quota caller of the request. Requests that never
// went through Authenticate are anonymous.
func CallerFrom(c *gin.Context) quota.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(quota.Caller); ok {
			return caller
		}
	}
	return quota.AnonymousCaller(c.ClientIP())
}
