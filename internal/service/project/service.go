// Package project is the data access layer for projects: client-scoped
// reads, the two-step onboarding writes, direct creation, and lifecycle
// transitions.
//
// Every operation returns (value, error). On a backend fault the value is
// the sentinel (nil, false or an empty non-nil slice), the fault is logged,
// and the error wraps apperr.ErrBackend so callers can render an empty
// state.
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/events"
	"dgtech/internal/lifecycle"
	"dgtech/internal/model"
	"dgtech/internal/repository"
	"dgtech/internal/service/profile"
	"dgtech/pkg/logger"
	"dgtech/pkg/metrics"
)

const (
	MinTitleLength       = 5
	MinDescriptionLength = 20
)

type Service struct {
	projects repository.ProjectStore
	profiles *profile.Service
	events   *events.Emitter
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(projects repository.ProjectStore, profiles *profile.Service, emitter *events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		projects: projects,
		profiles: profiles,
		events:   emitter,
		logger:   logger,
		now:      time.Now,
	}
}

// fault logs err unless it is an expected outcome and classifies it.
func (s *Service) fault(ctx context.Context, op string, err error, fields ...zap.Field) error {
	if !apperr.Classified(err) {
		logger.WithTrace(ctx, s.logger).Error("Project store fault",
			append(fields, zap.String("op", op), zap.Error(err))...)
	}
	return apperr.Backend(op, err)
}

// ValidateDetails trims title and description and enforces their minimum
// lengths, counted in characters.
func ValidateDetails(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(title) < MinTitleLength {
		return "", "", apperr.Validation("title", title, fmt.Sprintf("must be at least %d characters", MinTitleLength))
	}
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		return "", "", apperr.Validation("description", "", fmt.Sprintf("must be at least %d characters", MinDescriptionLength))
	}
	return title, description, nil
}

func (s *Service) GetProjectByID(ctx context.Context, id int64) (*model.ProjectWithTotals, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, s.fault(ctx, "get project", err, zap.Int64("project_id", id))
	}
	return p, nil
}

// GetProjectsForClient returns the client's projects, newest first.
func (s *Service) GetProjectsForClient(ctx context.Context, clientID string) ([]model.ProjectWithTotals, error) {
	projects, err := s.projects.ListByClient(ctx, clientID)
	if err != nil {
		return []model.ProjectWithTotals{}, s.fault(ctx, "list projects", err, zap.String("client_id", clientID))
	}
	return projects, nil
}

// GetIncompleteOnboardingProject returns (nil, nil) when the client has no
// project in onboarding.
func (s *Service) GetIncompleteOnboardingProject(ctx context.Context, clientID string) (*model.Project, error) {
	p, err := s.projects.FindIncompleteOnboarding(ctx, clientID)
	if err != nil {
		return nil, s.fault(ctx, "find incomplete onboarding", err, zap.String("client_id", clientID))
	}
	return p, nil
}

// HasCompletedOnboarding reports whether any project of the client has
// completed onboarding.
func (s *Service) HasCompletedOnboarding(ctx context.Context, clientID string) (bool, error) {
	ok, err := s.projects.ExistsCompletedOnboarding(ctx, clientID)
	if err != nil {
		return false, s.fault(ctx, "has completed onboarding", err, zap.String("client_id", clientID))
	}
	return ok, nil
}

// CreateProjectStep1 ensures the owner's profile, then persists a draft
// with an empty title that is still in onboarding. When the client already
// has such a draft it is returned instead of a duplicate.
func (s *Service) CreateProjectStep1(ctx context.Context, owner model.Principal, projectType model.ProjectType) (*model.Project, error) {
	if !projectType.Valid() {
		return nil, apperr.Validation("project_type", string(projectType), "not in vocabulary")
	}
	if _, err := s.profiles.EnsureProfile(ctx, owner.UserID, owner.Email); err != nil {
		return nil, err
	}

	p := &model.Project{
		ClientID:            owner.UserID,
		ProjectType:         projectType,
		OnboardingCompleted: false,
		Status:              model.StatusDraft,
	}
	if err := s.projects.Insert(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return s.resumeDraft(ctx, owner.UserID)
		}
		return nil, s.fault(ctx, "create project step 1", err, zap.String("client_id", owner.UserID))
	}

	logger.WithTrace(ctx, s.logger).Info("Onboarding draft created",
		zap.Int64("project_id", p.ID),
		zap.String("client_id", p.ClientID),
		zap.String("project_type", string(p.ProjectType)),
	)
	s.events.Emit(ctx, events.DraftCreated, *p, "", p.Status)
	return p, nil
}

func (s *Service) resumeDraft(ctx context.Context, clientID string) (*model.Project, error) {
	existing, err := s.GetIncompleteOnboardingProject(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("onboarding draft for %s vanished: %w", clientID, apperr.ErrConflict)
	}
	logger.WithTrace(ctx, s.logger).Info("Resuming existing onboarding draft",
		zap.Int64("project_id", existing.ID),
		zap.String("client_id", clientID),
	)
	return existing, nil
}

// CompleteOnboarding records the title and description of a draft and marks
// its onboarding completed. The status is left unchanged.
func (s *Service) CompleteOnboarding(ctx context.Context, id int64, title, description string) (*model.ProjectWithTotals, error) {
	title, description, err := ValidateDetails(title, description)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.CompleteOnboarding(ctx, id, title, description)
	if err != nil {
		return nil, s.fault(ctx, "complete onboarding", err, zap.Int64("project_id", id))
	}

	logger.WithTrace(ctx, s.logger).Info("Onboarding completed", zap.Int64("project_id", id))
	s.events.Emit(ctx, events.OnboardingCompleted, p.Project, "", p.Status)
	return p, nil
}

// CreateProject is single-step creation outside the wizard: the project is
// born with onboarding completed.
func (s *Service) CreateProject(ctx context.Context, owner model.Principal, in model.NewProject) (*model.ProjectWithTotals, error) {
	if !in.ProjectType.Valid() {
		return nil, apperr.Validation("project_type", string(in.ProjectType), "not in vocabulary")
	}
	title := strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(title) < MinTitleLength {
		return nil, apperr.Validation("title", title, fmt.Sprintf("must be at least %d characters", MinTitleLength))
	}
	if _, err := s.profiles.EnsureProfile(ctx, owner.UserID, owner.Email); err != nil {
		return nil, err
	}

	p := &model.Project{
		ClientID:            owner.UserID,
		Title:               title,
		Description:         trimmed(in.Description),
		ProjectType:         in.ProjectType,
		OnboardingCompleted: true,
		Status:              model.StatusDraft,
	}
	if err := s.projects.Insert(ctx, p); err != nil {
		return nil, s.fault(ctx, "create project", err, zap.String("client_id", owner.UserID))
	}

	s.events.Emit(ctx, events.ProjectCreated, *p, "", p.Status)
	return s.GetProjectByID(ctx, p.ID)
}

// UpdateProject applies a partial update of content and agency fields.
func (s *Service) UpdateProject(ctx context.Context, id int64, u model.ProjectUpdate) (*model.ProjectWithTotals, error) {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if utf8.RuneCountInString(title) < MinTitleLength {
			return nil, apperr.Validation("title", title, fmt.Sprintf("must be at least %d characters", MinTitleLength))
		}
		u.Title = &title
	}
	u.Description = trimmed(u.Description)
	if u.DepositType != nil && !u.DepositType.Valid() {
		return nil, apperr.Validation("deposit_type", string(*u.DepositType), "not in vocabulary")
	}
	if u.DepositValue != nil && *u.DepositValue < 0 {
		return nil, apperr.Validation("deposit_value", fmt.Sprint(*u.DepositValue), "must not be negative")
	}

	p, err := s.projects.Update(ctx, id, u)
	if err != nil {
		return nil, s.fault(ctx, "update project", err, zap.Int64("project_id", id))
	}
	return p, nil
}

// UpdateProjectStatus moves a project along the lifecycle graph. The status
// string must belong to the vocabulary and the move must be an edge.
func (s *Service) UpdateProjectStatus(ctx context.Context, id int64, status string) (*model.ProjectWithTotals, error) {
	to, err := model.ParseProjectStatus(status)
	if err != nil {
		return nil, err
	}
	current, err := s.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	change, err := lifecycle.Plan(current.Project, to, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, current.Project, change, events.StatusChanged)
}

// SubmitProject moves a draft whose onboarding is completed to SOUMIS and
// stamps submitted_at. Submitting an already submitted project returns it
// unchanged, including when a concurrent submit wins the write.
func (s *Service) SubmitProject(ctx context.Context, id int64) (*model.ProjectWithTotals, error) {
	current, err := s.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == model.StatusSubmitted {
		return current, nil
	}
	change, err := lifecycle.Plan(current.Project, model.StatusSubmitted, s.now().UTC())
	if err != nil {
		return nil, err
	}
	p, err := s.apply(ctx, current.Project, change, events.ProjectSubmitted)
	if errors.Is(err, apperr.ErrConflict) {
		latest, rerr := s.GetProjectByID(ctx, id)
		if rerr == nil && latest.Status == model.StatusSubmitted {
			logger.WithTrace(ctx, s.logger).Info("Project already submitted concurrently", zap.Int64("project_id", id))
			return latest, nil
		}
	}
	return p, err
}

// AssignManager sets the project's manager. managerID must belong to a
// profile holding the manager role.
func (s *Service) AssignManager(ctx context.Context, id int64, managerID string) (*model.ProjectWithTotals, error) {
	managerID = strings.TrimSpace(managerID)
	if managerID == "" {
		return nil, apperr.Validation("manager_id", "", "must not be empty")
	}
	role, err := s.profiles.RoleOf(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleManager {
		return nil, apperr.Validation("manager_id", managerID, fmt.Sprintf("profile has role %s, not %s", role, model.RoleManager))
	}
	return s.UpdateProject(ctx, id, model.ProjectUpdate{ManagerID: &managerID})
}

func (s *Service) apply(ctx context.Context, current model.Project, change model.StatusChange, eventType string) (*model.ProjectWithTotals, error) {
	p, err := s.projects.ApplyStatusChange(ctx, current.ID, change)
	if err != nil {
		return nil, s.fault(ctx, "update project status", err, zap.Int64("project_id", current.ID))
	}

	metrics.IncrementLifecycleTransition(string(change.From), string(change.To))
	logger.WithTrace(ctx, s.logger).Info("Project status changed",
		zap.Int64("project_id", current.ID),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
	)
	s.events.Emit(ctx, eventType, p.Project, change.From, change.To)
	return p, nil
}

// DeleteProject hard-deletes a draft. Projects past BROUILLON fail
// validation; a missing project reports false.
func (s *Service) DeleteProject(ctx context.Context, id int64) (bool, error) {
	current, err := s.projects.FindByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.fault(ctx, "delete project", err, zap.Int64("project_id", id))
	}
	if err := lifecycle.CanDelete(current.Project); err != nil {
		return false, err
	}

	deleted, err := s.projects.DeleteDraft(ctx, id)
	if err != nil {
		return false, s.fault(ctx, "delete project", err, zap.Int64("project_id", id))
	}
	if deleted {
		logger.WithTrace(ctx, s.logger).Info("Draft project deleted", zap.Int64("project_id", id))
		s.events.Emit(ctx, events.ProjectDeleted, current.Project, current.Status, "")
	}
	return deleted, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
