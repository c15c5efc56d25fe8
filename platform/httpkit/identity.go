package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the caller authenticated by AuthRequired. Every user-scoped
// query takes its user ID from here, never from the request body.
type Identity struct {
	userID uuid.UUID
}

// UserID returns the authenticated user's ID.
func (i *Identity) UserID() uuid.UUID {
	return i.userID
}

// IdentityFrom returns the caller set by AuthRequired, if any.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return nil, false
	}
	uid, ok := raw.(uuid.UUID)
	if !ok || uid == uuid.Nil {
		return nil, false
	}
	return &Identity{userID: uid}, true
}

// MustGetIdentity returns the caller or aborts with 401 and returns nil.
func MustGetIdentity(c *gin.Context) *Identity {
	id, ok := IdentityFrom(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return nil
	}
	return id
}
