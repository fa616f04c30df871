package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/internal/repository"
	"dgtech/pkg/logger"
)

// Workspace serves the milestones and chat of a project.
type Workspace struct {
	projects   *Service
	milestones repository.MilestoneStore
	messages   repository.MessageStore
	logger     *zap.Logger
}

func NewWorkspace(projects *Service, milestones repository.MilestoneStore, messages repository.MessageStore, logger *zap.Logger) *Workspace {
	return &Workspace{
		projects:   projects,
		milestones: milestones,
		messages:   messages,
		logger:     logger,
	}
}

func (w *Workspace) fault(ctx context.Context, op string, err error, projectID int64) error {
	if !apperr.Classified(err) {
		logger.WithTrace(ctx, w.logger).Error("Workspace store fault",
			zap.String("op", op), zap.Int64("project_id", projectID), zap.Error(err))
	}
	return apperr.Backend(op, err)
}

// ListMilestones returns the milestones of a project visible to principal.
func (w *Workspace) ListMilestones(ctx context.Context, principal model.Principal, projectID int64) ([]model.Milestone, error) {
	if _, err := w.projects.GetProjectFor(ctx, principal, projectID); err != nil {
		return []model.Milestone{}, err
	}
	ms, err := w.milestones.ListByProject(ctx, projectID)
	if err != nil {
		return []model.Milestone{}, w.fault(ctx, "list milestones", err, projectID)
	}
	return ms, nil
}

// NewMilestone is the input of AddMilestone.
type NewMilestone struct {
	ProjectID   int64
	Title       string
	Description *string
	Price       float64
	DueDate     *time.Time
	DeveloperID *string
}

// AddMilestone creates a milestone in A_FAIRE. It is an agency-side
// operation and carries no principal.
func (w *Workspace) AddMilestone(ctx context.Context, in NewMilestone) (*model.Milestone, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title", "", "must not be empty")
	}
	if in.Price < 0 {
		return nil, apperr.Validation("price", fmt.Sprint(in.Price), "must not be negative")
	}
	if _, err := w.projects.GetProjectByID(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	m := &model.Milestone{
		ProjectID:   in.ProjectID,
		DeveloperID: in.DeveloperID,
		Title:       title,
		Description: in.Description,
		Status:      model.MilestoneTodo,
		Price:       in.Price,
		DueDate:     in.DueDate,
	}
	if err := w.milestones.Insert(ctx, m); err != nil {
		return nil, w.fault(ctx, "add milestone", err, in.ProjectID)
	}
	return m, nil
}

// SetMilestoneStatus changes a milestone's workflow state.
func (w *Workspace) SetMilestoneStatus(ctx context.Context, id int64, status string) (*model.Milestone, error) {
	st, err := model.ParseMilestoneStatus(status)
	if err != nil {
		return nil, err
	}
	m, err := w.milestones.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, w.fault(ctx, "set milestone status", err, 0)
	}
	return m, nil
}

// ListMessages returns the chat of a project, oldest first.
func (w *Workspace) ListMessages(ctx context.Context, principal model.Principal, projectID int64) ([]model.ProjectChatMessage, error) {
	if _, err := w.projects.GetProjectFor(ctx, principal, projectID); err != nil {
		return []model.ProjectChatMessage{}, err
	}
	msgs, err := w.messages.ListByProject(ctx, projectID)
	if err != nil {
		return []model.ProjectChatMessage{}, w.fault(ctx, "list messages", err, projectID)
	}
	return msgs, nil
}

// PostMessage appends a message from principal to the project chat.
func (w *Workspace) PostMessage(ctx context.Context, principal model.Principal, projectID int64, content string) (*model.ProjectChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content", "", "must not be empty")
	}
	if _, err := w.projects.GetProjectFor(ctx, principal, projectID); err != nil {
		return nil, err
	}

	m := &model.ProjectChatMessage{
		ProjectID: projectID,
		SenderID:  principal.UserID,
		Content:   content,
	}
	if err := w.messages.Insert(ctx, m); err != nil {
		return nil, w.fault(ctx, "post message", err, projectID)
	}
	return m, nil
}
