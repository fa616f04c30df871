package onboarding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dgtech/internal/model"
)

type fakeLookup struct {
	done      bool
	doneErr   error
	draft     *model.Project
	draftErr  error
	doneCalls int
	draftCall int
}

func (f *fakeLookup) HasCompletedOnboarding(context.Context, string) (bool, error) {
	f.doneCalls++
	return f.done, f.doneErr
}

func (f *fakeLookup) GetIncompleteOnboardingProject(context.Context, string) (*model.Project, error) {
	f.draftCall++
	return f.draft, f.draftErr
}

var alice = model.Principal{UserID: "alice", Email: "alice@example.com", Role: model.RoleClient}

func TestResolve_Onboarded(t *testing.T) {
	lookup := &fakeLookup{done: true}
	c := NewController(lookup, zap.NewNop())

	got := c.Resolve(context.Background(), alice, "/projects")
	if got.Outcome != OutcomeOnboarded || got.View != ViewRequested || got.Redirect != "" {
		t.Fatalf("unexpected landing: %+v", got)
	}
	if lookup.draftCall != 0 {
		t.Fatalf("expected draft lookup to be skipped, got %d calls", lookup.draftCall)
	}
}

func TestResolve_OnboardingRouteRedirectsWhenSettled(t *testing.T) {
	c := NewController(&fakeLookup{done: true}, zap.NewNop())

	for _, route := range []string{"/onboarding", "/onboarding/step2"} {
		got := c.Resolve(context.Background(), alice, route)
		if got.View != ViewDashboard || got.Redirect != RouteDashboard {
			t.Fatalf("route %s: expected dashboard redirect, got %+v", route, got)
		}
	}

	manager := model.Principal{UserID: "m1", Role: model.RoleManager}
	got := c.Resolve(context.Background(), manager, "/onboarding")
	if got.Outcome != OutcomeBypass || got.Redirect != RouteDashboard {
		t.Fatalf("expected bypass with redirect, got %+v", got)
	}
}

func TestResolve_ResumeLocksProjectType(t *testing.T) {
	lookup := &fakeLookup{draft: &model.Project{ID: 7, ProjectType: model.ProjectTypeAcademic}}
	c := NewController(lookup, zap.NewNop())

	got := c.Resolve(context.Background(), alice, "/dashboard")
	if got.Outcome != OutcomeResume || got.View != ViewWizardStep2 {
		t.Fatalf("unexpected landing: %+v", got)
	}
	if got.ProjectID != 7 || got.ProjectType != model.ProjectTypeAcademic {
		t.Fatalf("expected draft 7 ACADEMIC, got %+v", got)
	}
	if !got.Gated() {
		t.Fatalf("expected resume landing to be gated")
	}
}

func TestResolve_Fresh(t *testing.T) {
	c := NewController(&fakeLookup{}, zap.NewNop())

	got := c.Resolve(context.Background(), alice, "/dashboard")
	if got.Outcome != OutcomeFresh || got.View != ViewWizardStep1 {
		t.Fatalf("unexpected landing: %+v", got)
	}
}

func TestResolve_BypassSkipsLookups(t *testing.T) {
	lookup := &fakeLookup{}
	c := NewController(lookup, zap.NewNop())

	for _, role := range []model.Role{model.RoleManager, model.RoleDeveloper} {
		got := c.Resolve(context.Background(), model.Principal{UserID: "x", Role: role}, "/projects")
		if got.Outcome != OutcomeBypass || got.View != ViewRequested {
			t.Fatalf("role %s: unexpected landing %+v", role, got)
		}
	}
	if lookup.doneCalls != 0 || lookup.draftCall != 0 {
		t.Fatalf("expected no lookups for bypass roles")
	}
}

func TestResolve_FaultsFailOpenToFresh(t *testing.T) {
	boom := errors.New("unreachable")
	cases := []*fakeLookup{
		{doneErr: boom},
		{draftErr: boom},
		{doneErr: boom, draft: &model.Project{ID: 3}},
	}
	for i, lookup := range cases {
		got := NewController(lookup, zap.NewNop()).Resolve(context.Background(), alice, "/dashboard")
		if got.Outcome != OutcomeFresh || got.View != ViewWizardStep1 {
			t.Fatalf("case %d: expected fresh, got %+v", i, got)
		}
	}
}

func TestIsOnboardingRoute(t *testing.T) {
	cases := map[string]bool{
		"/onboarding":       true,
		"/onboarding/step1": true,
		"/onboardingx":      false,
		"/dashboard":        false,
		"":                  false,
	}
	for route, want := range cases {
		if got := IsOnboardingRoute(route); got != want {
			t.Fatalf("route %q: expected %v, got %v", route, want, got)
		}
	}
}
