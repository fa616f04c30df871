package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dgtech/internal/handler"
	"dgtech/internal/onboarding"
)

// OnboardingOnly guards the wizard routes: a principal who no longer
// belongs in the wizard gets 409 with the dashboard redirect.
func OnboardingOnly(controller *onboarding.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := handler.CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		landing := controller.Resolve(c.Request.Context(), principal, onboarding.RouteOnboarding)
		if landing.Redirect != "" {
			c.JSON(http.StatusConflict, gin.H{
				"error":    "onboarding already completed",
				"redirect": landing.Redirect,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOnboarded guards dashboard routes: a client still in the wizard
// gets 403 with the wizard step to show.
func RequireOnboarded(controller *onboarding.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := handler.CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		landing := controller.Resolve(c.Request.Context(), principal, onboarding.RouteDashboard)
		if landing.Gated() {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "onboarding required",
				"landing": landing,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
