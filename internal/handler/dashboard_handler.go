package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dgtech/internal/service/dashboard"
)

type DashboardHandler struct {
	dashboard *dashboard.Service
}

func NewDashboardHandler(dashboard *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(dashboard.DefaultLimit)))
	if err != nil || n <= 0 || n > 50 {
		return dashboard.DefaultLimit
	}
	return n
}

// Stats handles GET /dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.dashboard.Stats(c.Request.Context(), principal.UserID))
}

// RecentMessages handles GET /dashboard/messages
func (h *DashboardHandler) RecentMessages(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": h.dashboard.RecentMessages(c.Request.Context(), principal.UserID, limitParam(c)),
	})
}

// RecentDocuments handles GET /dashboard/documents
func (h *DashboardHandler) RecentDocuments(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": h.dashboard.RecentDocuments(c.Request.Context(), principal.UserID, limitParam(c)),
	})
}
