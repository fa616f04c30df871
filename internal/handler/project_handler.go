package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dgtech/internal/model"
	"dgtech/internal/service/project"
)

type ProjectHandler struct {
	projects  *project.Service
	workspace *project.Workspace
	logger    *zap.Logger
}

func NewProjectHandler(projects *project.Service, workspace *project.Workspace, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, workspace: workspace, logger: logger}
}

// ownedProject loads the project and requires the principal to own it.
func (h *ProjectHandler) ownedProject(c *gin.Context, principal model.Principal) (*model.ProjectWithTotals, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	p, err := h.projects.GetProjectFor(c.Request.Context(), principal, id)
	if err == nil {
		err = project.CheckOwner(principal, p.Project)
	}
	if err != nil {
		WriteError(c, h.logger, err)
		return nil, false
	}
	return p, true
}

// List handles GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	projects, err := h.projects.GetProjectsForClient(c.Request.Context(), principal.UserID)
	if err != nil {
		// empty state, the fault is already logged
		c.JSON(http.StatusOK, gin.H{"projects": projects, "degraded": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}

	var req model.NewProject
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.projects.CreateProject(c.Request.Context(), principal, req)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// Get handles GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.projects.GetProjectFor(c.Request.Context(), principal, id)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Update handles PATCH /projects/:id. Only title and description bind from
// the request body.
func (h *ProjectHandler) Update(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	current, ok := h.ownedProject(c, principal)
	if !ok {
		return
	}

	var req model.ProjectUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.projects.UpdateProject(c.Request.Context(), current.ID, model.ProjectUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	current, ok := h.ownedProject(c, principal)
	if !ok {
		return
	}

	deleted, err := h.projects.DeleteProject(c.Request.Context(), current.ID)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// Submit handles POST /projects/:id/submit
func (h *ProjectHandler) Submit(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	current, ok := h.ownedProject(c, principal)
	if !ok {
		return
	}

	p, err := h.projects.SubmitProject(c.Request.Context(), current.ID)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Milestones handles GET /projects/:id/milestones
func (h *ProjectHandler) Milestones(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ms, err := h.workspace.ListMilestones(c.Request.Context(), principal, id)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": ms})
}

// Messages handles GET /projects/:id/messages
func (h *ProjectHandler) Messages(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	msgs, err := h.workspace.ListMessages(c.Request.Context(), principal, id)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage handles POST /projects/:id/messages
func (h *ProjectHandler) PostMessage(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	m, err := h.workspace.PostMessage(c.Request.Context(), principal, id, req.Content)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}
