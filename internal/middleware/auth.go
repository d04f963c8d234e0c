package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rakhaaa/todo-breeze-blade/internal/models"
	"github.com/rakhaaa/todo-breeze-blade/internal/utils"
)

const (
	userIDContextKey = "user_id"
	roleContextKey   = "role"
)

// AuthMiddleware is a middleware that checks for a valid JWT token
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			c.Abort()
			return
		}

		// Check if the authorization header has the correct format
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must be in the format 'Bearer {token}'",
			})
			c.Abort()
			return
		}

		tokenString := tokenParts[1]

		// Validate the token
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			c.Abort()
			return
		}

		role, ok := models.ParseRole(claims.Role)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			c.Abort()
			return
		}

		// Expose the actor identity to handlers
		c.Set(userIDContextKey, claims.UserID)
		c.Set(roleContextKey, role)
		c.Next()
	}
}

// RequireAdmin is the coarse gate in front of the user-management
// routes. Authenticated non-admins are redirected to their todo list
// before the handler ever runs.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if role != models.RoleAdmin {
			c.Redirect(http.StatusSeeOther, "/todos")
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserIDFromContext returns the authenticated user's ID.
func UserIDFromContext(c *gin.Context) (int, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// RoleFromContext returns the authenticated user's role.
func RoleFromContext(c *gin.Context) (models.Role, bool) {
	value, exists := c.Get(roleContextKey)
	if !exists {
		return "", false
	}
	role, ok := value.(models.Role)
	if !ok {
		return "", false
	}
	return role, true
}
