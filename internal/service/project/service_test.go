package project

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"dgtech/internal/apperr"
	"dgtech/internal/events"
	"dgtech/internal/model"
	"dgtech/internal/repository/memory"
	"dgtech/internal/service/profile"
)

type fixture struct {
	db        *memory.DB
	projects  *Service
	workspace *Workspace
}

func newFixture() *fixture {
	db := memory.New()
	log := zap.NewNop()
	profiles := profile.NewService(db.Profiles(), log)
	projects := NewService(db.Projects(), profiles, events.NewEmitter(nil, log), log)
	return &fixture{
		db:        db,
		projects:  projects,
		workspace: NewWorkspace(projects, db.Milestones(), db.Messages(), log),
	}
}

func client(id string) model.Principal {
	return model.Principal{UserID: id, Email: id + "@example.com", Role: model.RoleClient}
}

// onboarded creates a project that completed onboarding for id.
func (f *fixture) onboarded(t *testing.T, id string) *model.ProjectWithTotals {
	t.Helper()
	draft, err := f.projects.CreateProjectStep1(context.Background(), client(id), model.ProjectTypeClient)
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	p, err := f.projects.CompleteOnboarding(context.Background(), draft.ID, "My App", "A twenty-character description.")
	if err != nil {
		t.Fatalf("complete onboarding: %v", err)
	}
	return p
}

func TestGetProjectsForClient_OnlyOwnProjectsNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.onboarded(t, "alice")
	second, err := f.projects.CreateProject(ctx, client("alice"), model.NewProject{Title: "Second project", ProjectType: model.ProjectTypePersonal})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	f.onboarded(t, "bob")

	got, err := f.projects.GetProjectsForClient(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(got))
	}
	for _, p := range got {
		if p.ClientID != "alice" {
			t.Fatalf("leaked project of %s", p.ClientID)
		}
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("expected newest first, got ids %d, %d", got[0].ID, got[1].ID)
	}

	empty, err := f.projects.GetProjectsForClient(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v, %v", empty, err)
	}
}

func TestCreateProjectStep1_ThenIncompleteLookupReturnsIt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft, err := f.projects.CreateProjectStep1(ctx, client("alice"), model.ProjectTypeAcademic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Title != "" || draft.OnboardingCompleted || draft.Status != model.StatusDraft {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	got, err := f.projects.GetIncompleteOnboardingProject(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != draft.ID {
		t.Fatalf("expected draft %d, got %+v", draft.ID, got)
	}
}

func TestCreateProjectStep1_SecondDraftResumesExisting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.projects.CreateProjectStep1(ctx, client("alice"), model.ProjectTypeAcademic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.projects.CreateProjectStep1(ctx, client("alice"), model.ProjectTypePersonal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing draft %d, got %d", first.ID, second.ID)
	}
	if second.ProjectType != model.ProjectTypeAcademic {
		t.Fatalf("expected locked type ACADEMIC, got %s", second.ProjectType)
	}

	all, _ := f.projects.GetProjectsForClient(ctx, "alice")
	if len(all) != 1 {
		t.Fatalf("expected a single project, got %d", len(all))
	}
}

func TestCreateProjectStep1_ExistingProfileNotRecreated(t *testing.T) {
	f := newFixture()
	f.db.Profiles().Put(model.Profile{ID: "alice", Role: model.RoleClient})

	if _, err := f.projects.CreateProjectStep1(context.Background(), client("alice"), model.ProjectTypeClient); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := f.db.Calls("profiles.Insert"); n != 0 {
		t.Fatalf("expected no profile insert, got %d", n)
	}
}

func TestCreateProjectStep1_ProfileFailureAbortsInsert(t *testing.T) {
	f := newFixture()
	f.db.Fail("profiles.Insert", errors.New("permission denied"))

	p, err := f.projects.CreateProjectStep1(context.Background(), client("alice"), model.ProjectTypeClient)
	if p != nil {
		t.Fatalf("expected no project, got %+v", p)
	}
	if !errors.Is(err, apperr.ErrProfileBootstrap) {
		t.Fatalf("expected ErrProfileBootstrap, got %v", err)
	}
	if n := f.db.Calls("projects.Insert"); n != 0 {
		t.Fatalf("expected no project insert, got %d", n)
	}
}

func TestCreateProjectStep1_RejectsUnknownType(t *testing.T) {
	f := newFixture()
	_, err := f.projects.CreateProjectStep1(context.Background(), client("alice"), model.ProjectType("STARTUP"))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCompleteOnboarding_MarksCompletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.onboarded(t, "alice")
	if p.Title != "My App" || !p.OnboardingCompleted || p.Status != model.StatusDraft {
		t.Fatalf("unexpected project: %+v", p)
	}

	done, err := f.projects.HasCompletedOnboarding(ctx, "alice")
	if err != nil || !done {
		t.Fatalf("expected completed onboarding, got %v, %v", done, err)
	}
	draft, err := f.projects.GetIncompleteOnboardingProject(ctx, "alice")
	if err != nil || draft != nil {
		t.Fatalf("expected no incomplete draft, got %+v, %v", draft, err)
	}
}

func TestCompleteOnboarding_MissingProjectIsNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.projects.CompleteOnboarding(context.Background(), 999, "My App", "A twenty-character description.")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteOnboarding_ShortInputRejectedBeforeWrite(t *testing.T) {
	f := newFixture()
	draft, err := f.projects.CreateProjectStep1(context.Background(), client("alice"), model.ProjectTypeClient)
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}

	cases := []struct{ title, description string }{
		{"abcd", "A twenty-character description."},
		{"My App", "too short"},
		{"   abcd   ", "A twenty-character description."},
	}
	for _, tc := range cases {
		if _, err := f.projects.CompleteOnboarding(context.Background(), draft.ID, tc.title, tc.description); !apperr.IsValidation(err) {
			t.Fatalf("%q/%q: expected validation error, got %v", tc.title, tc.description, err)
		}
	}
	if n := f.db.Calls("projects.CompleteOnboarding"); n != 0 {
		t.Fatalf("expected no write, got %d", n)
	}
}

func TestSubmitProject_StampsOnceAndIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.onboarded(t, "alice")

	submitted, err := f.projects.SubmitProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submitted.Status != model.StatusSubmitted || submitted.SubmittedAt == nil {
		t.Fatalf("expected SOUMIS with submitted_at, got %+v", submitted)
	}
	stamp := *submitted.SubmittedAt

	again, err := f.projects.SubmitProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("expected idempotent submit, got %v", err)
	}
	if again.Status != model.StatusSubmitted || !again.SubmittedAt.Equal(stamp) {
		t.Fatalf("expected unchanged submission, got %+v", again)
	}
	if n := f.db.Calls("projects.ApplyStatusChange"); n != 1 {
		t.Fatalf("expected one status write, got %d", n)
	}
}

// raceStore lets a competing submit land between the read and the write.
type raceStore struct {
	*memory.Projects
}

func (r raceStore) ApplyStatusChange(ctx context.Context, id int64, c model.StatusChange) (*model.ProjectWithTotals, error) {
	if _, err := r.Projects.ApplyStatusChange(ctx, id, c); err != nil {
		return nil, err
	}
	return r.Projects.ApplyStatusChange(ctx, id, c)
}

func TestSubmitProject_ConcurrentSubmitIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.onboarded(t, "alice")

	log := zap.NewNop()
	racing := NewService(raceStore{f.db.Projects()}, profile.NewService(f.db.Profiles(), log), events.NewEmitter(nil, log), log)

	got, err := racing.SubmitProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("expected losing submit to succeed, got %v", err)
	}
	if got.Status != model.StatusSubmitted || got.SubmittedAt == nil {
		t.Fatalf("expected submitted project, got %+v", got)
	}
}

func TestAssignManager_RequiresManagerRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.onboarded(t, "alice")
	f.db.Profiles().Put(model.Profile{ID: "mgr", Role: model.RoleManager})
	f.db.Profiles().Put(model.Profile{ID: "dev", Role: model.RoleDeveloper})

	for _, id := range []string{"alice", "dev", "nobody", " "} {
		if _, err := f.projects.AssignManager(ctx, p.ID, id); !apperr.IsValidation(err) {
			t.Fatalf("assign %q: expected validation error, got %v", id, err)
		}
	}
	if n := f.db.Calls("projects.Update"); n != 0 {
		t.Fatalf("expected no project update, got %d", n)
	}

	got, err := f.projects.AssignManager(ctx, p.ID, "mgr")
	if err != nil {
		t.Fatalf("assign manager: %v", err)
	}
	if got.ManagerID == nil || *got.ManagerID != "mgr" {
		t.Fatalf("expected manager mgr, got %+v", got.ManagerID)
	}
}

func TestSubmitProject_RequiresCompletedOnboarding(t *testing.T) {
	f := newFixture()
	draft, err := f.projects.CreateProjectStep1(context.Background(), client("alice"), model.ProjectTypeClient)
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}

	if _, err := f.projects.SubmitProject(context.Background(), draft.ID); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitProject_PastSubmissionRejected(t *testing.T) {
	f := newFixture()
	id := f.db.Projects().Put(model.Project{ClientID: "alice", ProjectType: model.ProjectTypeClient, OnboardingCompleted: true, Status: model.StatusQuoting})

	if _, err := f.projects.SubmitProject(context.Background(), id); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateProjectStatus_FollowsGraph(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.db.Projects().Put(model.Project{ClientID: "alice", ProjectType: model.ProjectTypeClient, OnboardingCompleted: true, Status: model.StatusPendingPayment})

	if _, err := f.projects.UpdateProjectStatus(ctx, id, "DONE"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	if _, err := f.projects.UpdateProjectStatus(ctx, id, string(model.StatusDraft)); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for regression, got %v", err)
	}

	active, err := f.projects.UpdateProjectStatus(ctx, id, string(model.StatusActive))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active.StartedAt == nil {
		t.Fatalf("expected started_at stamped")
	}
	started := *active.StartedAt

	if _, err := f.projects.UpdateProjectStatus(ctx, id, string(model.StatusPaused)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	resumed, err := f.projects.UpdateProjectStatus(ctx, id, string(model.StatusActive))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.StartedAt.Equal(started) {
		t.Fatalf("expected started_at kept on resume")
	}

	done, err := f.projects.UpdateProjectStatus(ctx, id, string(model.StatusCompleted))
	if err != nil || done.CompletedAt == nil {
		t.Fatalf("expected completed_at stamped, got %+v, %v", done, err)
	}
	if _, err := f.projects.UpdateProjectStatus(ctx, id, string(model.StatusCancelled)); !apperr.IsValidation(err) {
		t.Fatalf("expected cancellation after completion to fail, got %v", err)
	}
}

func TestDeleteProject_DraftDisappears(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	draft, err := f.projects.CreateProjectStep1(ctx, client("alice"), model.ProjectTypeClient)
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}

	deleted, err := f.projects.DeleteProject(ctx, draft.ID)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got %v, %v", deleted, err)
	}
	got, err := f.projects.GetIncompleteOnboardingProject(ctx, "alice")
	if err != nil || got != nil {
		t.Fatalf("expected no draft after delete, got %+v, %v", got, err)
	}

	deleted, err = f.projects.DeleteProject(ctx, draft.ID)
	if err != nil || deleted {
		t.Fatalf("expected false for missing project, got %v, %v", deleted, err)
	}
}

func TestDeleteProject_OnlyDrafts(t *testing.T) {
	f := newFixture()
	id := f.db.Projects().Put(model.Project{ClientID: "alice", ProjectType: model.ProjectTypeClient, OnboardingCompleted: true, Status: model.StatusSubmitted})

	deleted, err := f.projects.DeleteProject(context.Background(), id)
	if deleted || !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v, %v", deleted, err)
	}
}

func TestTotalPrice_ComputedByStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.onboarded(t, "alice")

	for _, price := range []float64{100, 250} {
		if _, err := f.workspace.AddMilestone(ctx, NewMilestone{ProjectID: p.ID, Title: "Milestone", Price: price}); err != nil {
			t.Fatalf("add milestone: %v", err)
		}
	}
	got, err := f.projects.GetProjectByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalPrice != 350 {
		t.Fatalf("expected 350, got %v", got.TotalPrice)
	}

	if _, err := f.workspace.AddMilestone(ctx, NewMilestone{ProjectID: p.ID, Title: "Extra", Price: 50}); err != nil {
		t.Fatalf("add milestone: %v", err)
	}
	got, _ = f.projects.GetProjectByID(ctx, p.ID)
	if got.TotalPrice != 400 {
		t.Fatalf("expected 400, got %v", got.TotalPrice)
	}
}

func TestBackendFault_ReturnsSentinels(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	boom := errors.New("connection reset")
	f.db.Fail("projects.ListByClient", boom)
	f.db.Fail("projects.ExistsCompletedOnboarding", boom)
	f.db.Fail("projects.FindIncompleteOnboarding", boom)
	f.db.Fail("projects.FindByID", boom)

	list, err := f.projects.GetProjectsForClient(ctx, "alice")
	if list == nil || len(list) != 0 || !errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected empty list and ErrBackend, got %v, %v", list, err)
	}
	done, err := f.projects.HasCompletedOnboarding(ctx, "alice")
	if done || !errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected false and ErrBackend, got %v, %v", done, err)
	}
	draft, err := f.projects.GetIncompleteOnboardingProject(ctx, "alice")
	if draft != nil || !errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected nil and ErrBackend, got %v, %v", draft, err)
	}
	p, err := f.projects.GetProjectByID(ctx, 1)
	if p != nil || !errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected nil and ErrBackend, got %v, %v", p, err)
	}
}

func TestGetProjectByID_NotFoundIsDistinctFromFault(t *testing.T) {
	f := newFixture()
	_, err := f.projects.GetProjectByID(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected ErrNotFound only, got %v", err)
	}
}

func TestGetProjectByID_UnknownStoredStatusIsLoggedFault(t *testing.T) {
	db := memory.New()
	core, logs := observer.New(zap.ErrorLevel)
	log := zap.New(core)
	projects := NewService(db.Projects(), profile.NewService(db.Profiles(), log), events.NewEmitter(nil, log), log)
	id := db.Projects().Put(model.Project{ClientID: "alice", ProjectType: model.ProjectTypeClient, Status: model.ProjectStatus("ARCHIVED")})

	_, err := projects.GetProjectByID(context.Background(), id)
	if !errors.Is(err, apperr.ErrSchemaViolation) || !errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected schema violation fault, got %v", err)
	}
	if got := apperr.HTTPStatus(err); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
	if logs.FilterMessage("Project store fault").Len() != 1 {
		t.Fatalf("expected the fault to be logged, got %v", logs.All())
	}
}

func TestGetProjectFor_ScopesClients(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.onboarded(t, "alice")

	if _, err := f.projects.GetProjectFor(ctx, client("bob"), p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected foreign project to be not found, got %v", err)
	}
	manager := model.Principal{UserID: "m1", Role: model.RoleManager}
	if _, err := f.projects.GetProjectFor(ctx, manager, p.ID); err != nil {
		t.Fatalf("expected manager read, got %v", err)
	}
	if err := CheckOwner(manager, p.Project); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected manager write to be forbidden, got %v", err)
	}
}

func TestUpdateProject_ValidatesFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.onboarded(t, "alice")

	short := "abc"
	if _, err := f.projects.UpdateProject(ctx, p.ID, model.ProjectUpdate{Title: &short}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	bad := model.DepositType("barter")
	if _, err := f.projects.UpdateProject(ctx, p.ID, model.ProjectUpdate{DepositType: &bad}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	title := "  Renamed app  "
	got, err := f.projects.UpdateProject(ctx, p.ID, model.ProjectUpdate{Title: &title})
	if err != nil || got.Title != "Renamed app" {
		t.Fatalf("expected renamed project, got %+v, %v", got, err)
	}
	if _, err := f.projects.UpdateProject(ctx, 999, model.ProjectUpdate{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
