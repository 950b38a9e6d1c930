// Package auth resolves the calling user from a bearer token. Signup and
// login live outside this service; tokens are issued out of band.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cvjob-dk/cvjob-backend/internal/models"
	"github.com/cvjob-dk/cvjob-backend/internal/services"
)

const userKey = "currentUser"

// RequireUser aborts with 401 unless the request carries a valid token.
func RequireUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := users.GetByToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		SetCurrentUser(c, *user)
		c.Next()
	}
}

// SetCurrentUser attaches the user to the request context. Exposed for
// handler tests that bypass token lookup.
func SetCurrentUser(c *gin.Context, user models.User) {
	c.Set(userKey, user)
}

// CurrentUser returns the authenticated user set by RequireUser.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
