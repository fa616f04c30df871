package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dgtech/internal/handler"
	"dgtech/pkg/rbac"
)

// RequirePermission requires the principal's role to grant permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := handler.CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		if err := rbac.CheckPermission(string(principal.Role), permission); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}
