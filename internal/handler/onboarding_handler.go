package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dgtech/internal/onboarding"
)

type OnboardingHandler struct {
	controller *onboarding.Controller
	wizard     *onboarding.Wizard
	logger     *zap.Logger
}

func NewOnboardingHandler(controller *onboarding.Controller, wizard *onboarding.Wizard, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{controller: controller, wizard: wizard, logger: logger}
}

// State handles GET /onboarding/state
func (h *OnboardingHandler) State(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.controller.Resolve(c.Request.Context(), principal, onboarding.RouteOnboarding))
}

// Classify handles POST /onboarding/step1
func (h *OnboardingHandler) Classify(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	var req struct {
		ProjectType string `json:"project_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.wizard.Classify(c.Request.Context(), principal, req.ProjectType)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": p,
		"view":    onboarding.ViewWizardStep2,
	})
}

// Describe handles POST /onboarding/step2
func (h *OnboardingHandler) Describe(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	var req struct {
		ProjectID   int64  `json:"project_id" binding:"required"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.wizard.Describe(c.Request.Context(), principal, req.ProjectID, req.Title, req.Description)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":  p,
		"redirect": onboarding.RouteDashboard,
	})
}

// Back handles POST /onboarding/back
func (h *OnboardingHandler) Back(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	var req struct {
		ProjectID int64 `json:"project_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	deleted, err := h.wizard.Back(c.Request.Context(), principal, req.ProjectID)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
		"view":    onboarding.ViewWizardStep1,
	})
}
