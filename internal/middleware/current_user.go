package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ayoubbns/document-control-api/internal/database"
	apierrors "github.com/ayoubbns/document-control-api/internal/errors"
	"github.com/ayoubbns/document-control-api/internal/models"
)

const contextKeyCurrentUser = "current_user"

// LoadCurrentUser resolves the session user ID into a full User record and
// stores it in the context. Must run after RequireAuth.
func LoadCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().First(&user, userID).Error; err != nil {
			// Stale session: the user row is gone.
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(contextKeyCurrentUser, &user)
		c.Next()
	}
}

// CurrentUser retrieves the authenticated user loaded by LoadCurrentUser.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(contextKeyCurrentUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// RequireAdmin rejects non-elevated users. Must run after LoadCurrentUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !user.IsElevated() {
			apierrors.Forbidden(c, "Administrator privileges required")
			c.Abort()
			return
		}
		c.Next()
	}
}
