package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rakhaaa/todo-breeze-blade/internal/monitoring"
)

// AdminStats returns a runtime snapshot for the admin dashboard. The
// route sits behind the same coarse admin gate as user management.
func AdminStats(service *monitoring.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, service.Collect())
	}
}
