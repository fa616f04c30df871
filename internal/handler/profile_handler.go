package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dgtech/internal/model"
	"dgtech/internal/onboarding"
	"dgtech/internal/service/profile"
)

type ProfileHandler struct {
	profiles   *profile.Service
	controller *onboarding.Controller
	logger     *zap.Logger
}

func NewProfileHandler(profiles *profile.Service, controller *onboarding.Controller, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, controller: controller, logger: logger}
}

// GetMe handles GET /me. The profile is ensured first so that a session
// opened before its profile existed still gets one.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	p, err := h.profiles.EnsureProfile(c.Request.Context(), principal.UserID, principal.Email)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": p,
		"email":   principal.Email,
	})
}

// UpdateMe handles PATCH /me
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.profiles.UpdateProfile(c.Request.Context(), principal.UserID, req)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Landing handles GET /session/landing?route=...
func (h *ProfileHandler) Landing(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	route := c.DefaultQuery("route", onboarding.RouteDashboard)
	c.JSON(http.StatusOK, h.controller.Resolve(c.Request.Context(), principal, route))
}
