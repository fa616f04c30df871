package onboarding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/events"
	"dgtech/internal/model"
	"dgtech/internal/repository/memory"
	"dgtech/internal/service/profile"
	"dgtech/internal/service/project"
)

const description = "An application for booking rooms."

func newWizard() (*Wizard, *Controller, *memory.DB) {
	db := memory.New()
	log := zap.NewNop()
	projects := project.NewService(db.Projects(), profile.NewService(db.Profiles(), log), events.NewEmitter(nil, log), log)
	return NewWizard(projects, log), NewController(projects, log), db
}

func TestWizard_FullFlow(t *testing.T) {
	w, c, db := newWizard()
	ctx := context.Background()

	if got := c.Resolve(ctx, alice, "/dashboard"); got.Outcome != OutcomeFresh {
		t.Fatalf("expected fresh before classify, got %+v", got)
	}

	draft, err := w.Classify(ctx, alice, "CLIENT")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	got := c.Resolve(ctx, alice, "/dashboard")
	if got.Outcome != OutcomeResume || got.ProjectID != draft.ID || got.ProjectType != model.ProjectTypeClient {
		t.Fatalf("expected resume of draft %d, got %+v", draft.ID, got)
	}

	p, err := w.Describe(ctx, alice, draft.ID, "  Booking  ", description)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if p.Title != "Booking" || !p.OnboardingCompleted {
		t.Fatalf("unexpected project: %+v", p)
	}

	before := db.Calls("projects.FindIncompleteOnboarding")
	got = c.Resolve(ctx, alice, "/onboarding")
	if got.Outcome != OutcomeOnboarded || got.Redirect != RouteDashboard {
		t.Fatalf("expected onboarded redirect, got %+v", got)
	}
	if n := db.Calls("projects.FindIncompleteOnboarding"); n != before {
		t.Fatalf("expected draft lookup to be skipped once onboarded")
	}
}

func TestWizard_ClassifyResumesExistingDraft(t *testing.T) {
	w, _, _ := newWizard()
	ctx := context.Background()

	first, err := w.Classify(ctx, alice, "ACADEMIC")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	second, err := w.Classify(ctx, alice, "PERSONAL")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if second.ID != first.ID || second.ProjectType != model.ProjectTypeAcademic {
		t.Fatalf("expected original draft, got %+v", second)
	}
}

func TestWizard_ClassifyRejectsUnknownType(t *testing.T) {
	w, _, db := newWizard()
	if _, err := w.Classify(context.Background(), alice, "STARTUP"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := db.Calls("projects.Insert"); n != 0 {
		t.Fatalf("expected no insert, got %d", n)
	}
}

func TestWizard_DescribeValidatesBeforeAnyIO(t *testing.T) {
	w, _, db := newWizard()
	ctx := context.Background()
	draft, err := w.Classify(ctx, alice, "CLIENT")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	reads := db.Calls("projects.FindByID")

	if _, err := w.Describe(ctx, alice, draft.ID, "abcd", description); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for short title, got %v", err)
	}
	if _, err := w.Describe(ctx, alice, draft.ID, "Booking", "nineteen characters"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for short description, got %v", err)
	}
	if n := db.Calls("projects.FindByID"); n != reads {
		t.Fatalf("expected no reads, got %d", n-reads)
	}
	if n := db.Calls("projects.CompleteOnboarding"); n != 0 {
		t.Fatalf("expected no writes, got %d", n)
	}
}

func TestWizard_DescribeRejectsForeignAndCompletedDrafts(t *testing.T) {
	w, _, _ := newWizard()
	ctx := context.Background()
	draft, err := w.Classify(ctx, alice, "CLIENT")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	bob := model.Principal{UserID: "bob", Role: model.RoleClient}
	if _, err := w.Describe(ctx, bob, draft.ID, "Booking", description); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign draft, got %v", err)
	}

	if _, err := w.Describe(ctx, alice, draft.ID, "Booking", description); err != nil {
		t.Fatalf("describe: %v", err)
	}
	if _, err := w.Describe(ctx, alice, draft.ID, "Booking again", description); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict for completed draft, got %v", err)
	}
}

func TestWizard_BackDeletesDraft(t *testing.T) {
	w, c, _ := newWizard()
	ctx := context.Background()
	draft, err := w.Classify(ctx, alice, "PERSONAL")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	deleted, err := w.Back(ctx, alice, draft.ID)
	if err != nil || !deleted {
		t.Fatalf("expected draft deleted, got %v, %v", deleted, err)
	}
	if got := c.Resolve(ctx, alice, "/dashboard"); got.Outcome != OutcomeFresh {
		t.Fatalf("expected fresh after back, got %+v", got)
	}
	if _, err := w.Back(ctx, alice, draft.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted draft, got %v", err)
	}
}
