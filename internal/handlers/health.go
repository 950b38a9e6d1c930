package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cvjob-dk/cvjob-backend/internal/auth"
)

// HealthCheck is GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Me is GET /auth/me: echoes the authenticated user.
func Me(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}
