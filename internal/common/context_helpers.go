// File: internal/common/context_helpers.go
package common

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CurrentUserKey is the gin context key holding the resolved user for
	// this request, set once at the boundary by the session middleware.
	// Absent means the request is anonymous.
	CurrentUserKey = "currentUser"
	// CurrentUserIDKey holds the resolved user's ID for cheap lookups.
	CurrentUserIDKey = "currentUserID"
)

// GetCurrentUserIDFromContext retrieves the authenticated user's ID from the
// Gin context. Returns uuid.Nil for anonymous requests.
func GetCurrentUserIDFromContext(c *gin.Context) uuid.UUID {
	val, exists := c.Get(CurrentUserIDKey)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
