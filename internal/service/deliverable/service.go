// Package deliverable stores milestone deliverables in object storage and
// records them on the milestone.
package deliverable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/internal/repository"
	"dgtech/internal/service/project"
	"dgtech/pkg/logger"
	"dgtech/pkg/storage"
)

const (
	downloadURLExpiry = 15 * time.Minute
	cleanupTimeout    = 10 * time.Second
)

// ObjectStore holds the files. *storage.Client satisfies it.
type ObjectStore interface {
	PutObject(ctx context.Context, projectID int64, key string, reader io.Reader, size int64, contentType string) (string, error)
	PresignedGetURL(ctx context.Context, projectID int64, key string, expiry time.Duration) (string, error)
	RemoveObject(ctx context.Context, projectID int64, key string) error
}

type Service struct {
	projects     *project.Service
	milestones   repository.MilestoneStore
	deliverables repository.DeliverableStore
	objects      ObjectStore
	logger       *zap.Logger
}

func NewService(projects *project.Service, milestones repository.MilestoneStore, deliverables repository.DeliverableStore, objects ObjectStore, logger *zap.Logger) *Service {
	return &Service{
		projects:     projects,
		milestones:   milestones,
		deliverables: deliverables,
		objects:      objects,
		logger:       logger,
	}
}

// Upload is a file attached to a milestone.
type Upload struct {
	MilestoneID int64
	Filename    string
	ContentType string
	Size        int64
	Description *string
	Body        io.Reader
}

func (s *Service) milestoneFor(ctx context.Context, principal model.Principal, milestoneID int64) (*model.Milestone, error) {
	m, err := s.milestones.FindByID(ctx, milestoneID)
	if err != nil {
		return nil, apperr.Backend("find milestone", err)
	}
	if _, err := s.projects.GetProjectFor(ctx, principal, m.ProjectID); err != nil {
		return nil, err
	}
	return m, nil
}

// ObjectKey is where a file lands inside its project bucket.
func ObjectKey(milestoneID int64, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("milestones/%d/%s-%s", milestoneID, uuid.NewString(), name)
}

// Upload stores the file and records the deliverable row.
func (s *Service) Upload(ctx context.Context, principal model.Principal, in Upload) (*model.Deliverable, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int64("milestone_id", in.MilestoneID))

	if in.Body == nil || in.Size <= 0 {
		return nil, apperr.Validation("file", in.Filename, "must not be empty")
	}
	m, err := s.milestoneFor(ctx, principal, in.MilestoneID)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(m.ID, in.Filename)
	ref, err := s.objects.PutObject(ctx, m.ProjectID, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		log.Error("Failed to store deliverable", zap.Error(err))
		return nil, apperr.Backend("store deliverable", err)
	}

	d := &model.Deliverable{
		MilestoneID: m.ID,
		UploaderID:  principal.UserID,
		FileURL:     ref,
		Description: in.Description,
	}
	if err := s.deliverables.Insert(ctx, d); err != nil {
		log.Error("Failed to record deliverable", zap.String("file_url", ref), zap.Error(err))
		s.discardObject(ctx, log, m.ProjectID, key)
		return nil, apperr.Backend("record deliverable", err)
	}

	log.Info("Deliverable uploaded", zap.Int64("id", d.ID), zap.String("file_url", ref))
	return d, nil
}

// discardObject removes an object whose deliverable row was never written.
// It runs detached from ctx so a cancelled request still cleans up.
func (s *Service) discardObject(ctx context.Context, log *zap.Logger, projectID int64, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.objects.RemoveObject(ctx, projectID, key); err != nil {
		log.Error("Failed to remove orphaned deliverable object", zap.String("key", key), zap.Error(err))
		return
	}
	log.Warn("Removed orphaned deliverable object", zap.String("key", key))
}

// DownloadURL returns a short-lived URL for a deliverable visible to
// principal.
func (s *Service) DownloadURL(ctx context.Context, principal model.Principal, id int64) (string, error) {
	d, err := s.deliverables.FindByID(ctx, id)
	if err != nil {
		return "", apperr.Backend("find deliverable", err)
	}
	if _, err := s.projects.GetProjectFor(ctx, principal, d.ProjectID); err != nil {
		return "", err
	}

	key, err := keyFromRef(d.FileURL, d.ProjectID)
	if err != nil {
		return "", err
	}
	u, err := s.objects.PresignedGetURL(ctx, d.ProjectID, key, downloadURLExpiry)
	if err != nil {
		if !errors.Is(err, storage.ErrDisabled) {
			logger.WithTrace(ctx, s.logger).Error("Failed to presign deliverable", zap.Int64("id", id), zap.Error(err))
		}
		return "", apperr.Backend("presign deliverable", err)
	}
	return u, nil
}

// keyFromRef extracts the object key from an s3://bucket/key reference.
func keyFromRef(ref string, projectID int64) (string, error) {
	prefix := "s3://" + storage.BucketForProject(projectID) + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", apperr.Validation("file_url", ref, "not stored in the project bucket")
	}
	return strings.TrimPrefix(ref, prefix), nil
}
