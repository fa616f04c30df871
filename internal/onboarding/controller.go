// Package onboarding decides where a principal lands on each protected
// route entry and drives the two-step project wizard.
package onboarding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"dgtech/internal/model"
	"dgtech/pkg/logger"
	"dgtech/pkg/metrics"
	"dgtech/pkg/rbac"
)

// Outcome of a landing decision.
type Outcome string

const (
	// OutcomeOnboarded the client has a project with onboarding completed.
	OutcomeOnboarded Outcome = "onboarded"
	// OutcomeResume the client has a draft still in onboarding.
	OutcomeResume Outcome = "resume"
	// OutcomeFresh the client has nothing yet, or a lookup failed.
	OutcomeFresh Outcome = "fresh"
	// OutcomeBypass the role is not subject to onboarding.
	OutcomeBypass Outcome = "bypass"
)

// View the principal is sent to.
type View string

const (
	ViewRequested   View = "requested"
	ViewDashboard   View = "dashboard"
	ViewWizardStep1 View = "wizard_step1"
	ViewWizardStep2 View = "wizard_step2"
)

const (
	RouteOnboarding = "/onboarding"
	RouteDashboard  = "/dashboard"
)

// Landing is the decision for one route entry.
type Landing struct {
	Outcome Outcome `json:"outcome"`
	View    View    `json:"view"`
	// Redirect is set when the principal must leave the requested route.
	Redirect string `json:"redirect,omitempty"`
	// ProjectID and ProjectType identify the draft to resume. The type is
	// locked once chosen.
	ProjectID   int64             `json:"project_id,omitempty"`
	ProjectType model.ProjectType `json:"project_type,omitempty"`
}

// Gated reports whether the principal must stay in the wizard.
func (l Landing) Gated() bool {
	return l.View == ViewWizardStep1 || l.View == ViewWizardStep2
}

// Lookup is the part of the data access layer the controller reads.
// *project.Service satisfies it.
type Lookup interface {
	HasCompletedOnboarding(ctx context.Context, clientID string) (bool, error)
	GetIncompleteOnboardingProject(ctx context.Context, clientID string) (*model.Project, error)
}

type Controller struct {
	lookup Lookup
	logger *zap.Logger
}

func NewController(lookup Lookup, logger *zap.Logger) *Controller {
	return &Controller{lookup: lookup, logger: logger}
}

// IsOnboardingRoute reports whether route belongs to the wizard.
func IsOnboardingRoute(route string) bool {
	return route == RouteOnboarding || strings.HasPrefix(route, RouteOnboarding+"/")
}

// Resolve decides where principal lands when entering route. The draft
// lookup is only issued once the completion check has answered false, and
// any lookup fault sends the principal to a fresh wizard.
func (c *Controller) Resolve(ctx context.Context, principal model.Principal, route string) Landing {
	landing := c.resolve(ctx, principal, route)
	metrics.IncrementOnboardingOutcome(string(landing.Outcome))
	return landing
}

func (c *Controller) resolve(ctx context.Context, principal model.Principal, route string) Landing {
	log := logger.WithTrace(ctx, c.logger).With(zap.String("user_id", principal.UserID))

	if !rbac.CapabilitiesFor(string(principal.Role)).SubjectToOnboarding {
		return settled(OutcomeBypass, route)
	}

	done, err := c.lookup.HasCompletedOnboarding(ctx, principal.UserID)
	if err != nil {
		log.Warn("Onboarding completion check failed, starting wizard", zap.Error(err))
		return fresh()
	}
	if done {
		return settled(OutcomeOnboarded, route)
	}

	draft, err := c.lookup.GetIncompleteOnboardingProject(ctx, principal.UserID)
	if err != nil {
		log.Warn("Onboarding draft lookup failed, starting wizard", zap.Error(err))
		return fresh()
	}
	if draft == nil {
		return fresh()
	}
	return Landing{
		Outcome:     OutcomeResume,
		View:        ViewWizardStep2,
		ProjectID:   draft.ID,
		ProjectType: draft.ProjectType,
	}
}

func settled(outcome Outcome, route string) Landing {
	if IsOnboardingRoute(route) {
		return Landing{Outcome: outcome, View: ViewDashboard, Redirect: RouteDashboard}
	}
	return Landing{Outcome: outcome, View: ViewRequested}
}

func fresh() Landing {
	return Landing{Outcome: OutcomeFresh, View: ViewWizardStep1}
}
