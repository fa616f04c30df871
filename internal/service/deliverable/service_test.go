package deliverable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/events"
	"dgtech/internal/model"
	"dgtech/internal/repository/memory"
	"dgtech/internal/service/profile"
	"dgtech/internal/service/project"
	"dgtech/pkg/storage"
)

type fakeObjects struct {
	objects   map[string]string
	err       error
	removeErr error
	removed   []string
}

func (f *fakeObjects) PutObject(_ context.Context, projectID int64, key string, reader io.Reader, _ int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.objects[key] = string(b)
	return fmt.Sprintf("s3://%s/%s", storage.BucketForProject(projectID), key), nil
}

func (f *fakeObjects) PresignedGetURL(_ context.Context, projectID int64, key string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://objects.test/%s/%s?expires=%d", storage.BucketForProject(projectID), key, int(expiry.Seconds())), nil
}

func (f *fakeObjects) RemoveObject(ctx context.Context, _ int64, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.removed = append(f.removed, key)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

var (
	alice = model.Principal{UserID: "alice", Role: model.RoleClient}
	bob   = model.Principal{UserID: "bob", Role: model.RoleClient}
)

func newService(t *testing.T, objects ObjectStore) (*Service, *memory.DB, int64) {
	t.Helper()
	db := memory.New()
	log := zap.NewNop()
	projects := project.NewService(db.Projects(), profile.NewService(db.Profiles(), log), events.NewEmitter(nil, log), log)

	pid := db.Projects().Put(model.Project{ClientID: "alice", Title: "Shop", ProjectType: model.ProjectTypeClient, OnboardingCompleted: true, Status: model.StatusActive})
	m := model.Milestone{ProjectID: pid, Title: "Design", Status: model.MilestoneInReview, Price: 100}
	if err := db.Milestones().Insert(context.Background(), &m); err != nil {
		t.Fatalf("seed milestone: %v", err)
	}
	return NewService(projects, db.Milestones(), db.Deliverables(), objects, log), db, m.ID
}

func upload(milestoneID int64, body string) Upload {
	return Upload{
		MilestoneID: milestoneID,
		Filename:    "mockup.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestUploadAndDownload(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{}}
	s, _, milestoneID := newService(t, objects)
	ctx := context.Background()

	d, err := s.Upload(ctx, alice, upload(milestoneID, "pdf-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if d.UploaderID != "alice" || !strings.HasPrefix(d.FileURL, "s3://project-") {
		t.Fatalf("unexpected deliverable: %+v", d)
	}
	if len(objects.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(objects.objects))
	}

	u, err := s.DownloadURL(ctx, alice, d.ID)
	if err != nil {
		t.Fatalf("download url: %v", err)
	}
	if !strings.Contains(u, "mockup.pdf") || !strings.HasSuffix(u, "expires=900") {
		t.Fatalf("unexpected url: %s", u)
	}

	if _, err := s.DownloadURL(ctx, bob, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign client, got %v", err)
	}
}

func TestUpload_Rejections(t *testing.T) {
	s, db, milestoneID := newService(t, &fakeObjects{objects: map[string]string{}})
	ctx := context.Background()

	if _, err := s.Upload(ctx, alice, upload(milestoneID, "")); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for empty file, got %v", err)
	}
	if _, err := s.Upload(ctx, bob, upload(milestoneID, "data")); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign client, got %v", err)
	}
	if _, err := s.Upload(ctx, alice, upload(999, "data")); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing milestone, got %v", err)
	}
	if n := db.Calls("deliverables.Insert"); n != 0 {
		t.Fatalf("expected no deliverable rows, got %d", n)
	}
}

func TestUpload_StorageFailureIsBackend(t *testing.T) {
	s, db, milestoneID := newService(t, &fakeObjects{err: storage.ErrDisabled})

	if _, err := s.Upload(context.Background(), alice, upload(milestoneID, "data")); !errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if n := db.Calls("deliverables.Insert"); n != 0 {
		t.Fatalf("expected no deliverable row, got %d", n)
	}
}

func TestUpload_FailedRecordRemovesStoredObject(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{}}
	s, db, milestoneID := newService(t, objects)
	db.Fail("deliverables.Insert", errors.New("db down"))

	// the request is already gone by the time cleanup runs
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Upload(ctx, alice, upload(milestoneID, "abc")); !errors.Is(err, apperr.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if len(objects.objects) != 0 {
		t.Fatalf("expected stored object to be removed, still have %v", objects.objects)
	}
	if len(objects.removed) != 1 || !strings.HasPrefix(objects.removed[0], fmt.Sprintf("milestones/%d/", milestoneID)) {
		t.Fatalf("unexpected removals: %v", objects.removed)
	}
}

func TestUpload_CleanupFailureKeepsRecordError(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{}, removeErr: errors.New("bucket gone")}
	s, db, milestoneID := newService(t, objects)
	db.Fail("deliverables.Insert", errors.New("db down"))

	_, err := s.Upload(context.Background(), alice, upload(milestoneID, "abc"))
	if !errors.Is(err, apperr.ErrBackend) || !strings.Contains(err.Error(), "record deliverable") {
		t.Fatalf("expected record failure, got %v", err)
	}
	if len(objects.removed) != 1 {
		t.Fatalf("expected one removal attempt, got %v", objects.removed)
	}
}

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\doc.txt`: "doc.txt",
		"  ":                  "file",
	}
	for in, want := range cases {
		key := ObjectKey(4, in)
		if !strings.HasPrefix(key, "milestones/4/") || !strings.HasSuffix(key, "-"+want) {
			t.Fatalf("ObjectKey(%q) = %q, expected suffix %q", in, key, want)
		}
	}
}

func TestKeyFromRef(t *testing.T) {
	key, err := keyFromRef("s3://project-3/milestones/1/x.pdf", 3)
	if err != nil || key != "milestones/1/x.pdf" {
		t.Fatalf("unexpected key %q, %v", key, err)
	}
	if _, err := keyFromRef("s3://project-4/milestones/1/x.pdf", 3); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for foreign bucket, got %v", err)
	}
}
