package onboarding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/internal/service/project"
	"dgtech/pkg/logger"
)

// Wizard runs the two-step onboarding: classify creates the draft, describe
// completes it, back abandons it.
type Wizard struct {
	projects *project.Service
	logger   *zap.Logger
}

func NewWizard(projects *project.Service, logger *zap.Logger) *Wizard {
	return &Wizard{projects: projects, logger: logger}
}

// Classify records the project type of a new draft. A client who already
// has a draft in onboarding gets that draft back with its original type.
func (w *Wizard) Classify(ctx context.Context, principal model.Principal, projectType string) (*model.Project, error) {
	pt, err := model.ParseProjectType(projectType)
	if err != nil {
		return nil, err
	}

	existing, err := w.projects.GetIncompleteOnboardingProject(ctx, principal.UserID)
	if err != nil {
		// the insert below is still guarded by the store's one-draft rule
		logger.WithTrace(ctx, w.logger).Warn("Draft lookup failed before classify", zap.Error(err))
	}
	if existing != nil {
		return existing, nil
	}
	return w.projects.CreateProjectStep1(ctx, principal, pt)
}

// Describe validates title and description, then completes onboarding of
// the principal's draft. Nothing is read or written when validation fails.
func (w *Wizard) Describe(ctx context.Context, principal model.Principal, projectID int64, title, description string) (*model.ProjectWithTotals, error) {
	title, description, err := project.ValidateDetails(title, description)
	if err != nil {
		return nil, err
	}
	if _, err := w.ownedDraft(ctx, principal, projectID); err != nil {
		return nil, err
	}
	return w.projects.CompleteOnboarding(ctx, projectID, title, description)
}

// Back abandons the wizard by deleting the principal's draft.
func (w *Wizard) Back(ctx context.Context, principal model.Principal, projectID int64) (bool, error) {
	if _, err := w.ownedDraft(ctx, principal, projectID); err != nil {
		return false, err
	}
	return w.projects.DeleteProject(ctx, projectID)
}

func (w *Wizard) ownedDraft(ctx context.Context, principal model.Principal, projectID int64) (*model.ProjectWithTotals, error) {
	p, err := w.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.CheckOwner(principal, p.Project); err != nil {
		return nil, err
	}
	if p.OnboardingCompleted {
		return nil, fmt.Errorf("project %d already completed onboarding: %w", projectID, apperr.ErrConflict)
	}
	return p, nil
}
