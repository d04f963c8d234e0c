package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rakhaaa/todo-breeze-blade/internal/middleware"
	"github.com/rakhaaa/todo-breeze-blade/internal/policy"
)

// actorFromContext reads the authenticated actor placed in the context
// by the auth middleware. A missing actor means the route was wired
// without the middleware; the caller answers 401.
func actorFromContext(c *gin.Context) (policy.Actor, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return policy.Actor{}, false
	}
	role, ok := middleware.RoleFromContext(c)
	if !ok {
		return policy.Actor{}, false
	}
	return policy.Actor{ID: userID, Role: role}, true
}

func mustActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return actor, ok
}
