package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/pkg/metrics"
	"dgtech/pkg/util"
)

// ProfileStore persists profiles.
type ProfileStore interface {
	// FindByID returns apperr.ErrNotFound when no profile exists.
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	// Insert creates p unless a profile with the same id exists; created
	// reports whether a row was written.
	Insert(ctx context.Context, p *model.Profile) (created bool, err error)
	Update(ctx context.Context, id string, u model.ProfileUpdate) (*model.Profile, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.Profile, error)
}

// ProjectStore persists projects. Every read returns the totals projection.
type ProjectStore interface {
	FindByID(ctx context.Context, id int64) (*model.ProjectWithTotals, error)
	ListByClient(ctx context.Context, clientID string) ([]model.ProjectWithTotals, error)
	// FindIncompleteOnboarding returns (nil, nil) when the client has no
	// project still in onboarding.
	FindIncompleteOnboarding(ctx context.Context, clientID string) (*model.Project, error)
	ExistsCompletedOnboarding(ctx context.Context, clientID string) (bool, error)
	// Insert fills p.ID and p.CreatedAt. A second incomplete-onboarding
	// project for the same client fails with apperr.ErrConflict.
	Insert(ctx context.Context, p *model.Project) error
	CompleteOnboarding(ctx context.Context, id int64, title, description string) (*model.ProjectWithTotals, error)
	Update(ctx context.Context, id int64, u model.ProjectUpdate) (*model.ProjectWithTotals, error)
	// ApplyStatusChange writes c only while the row still holds c.From;
	// otherwise it fails with apperr.ErrConflict.
	ApplyStatusChange(ctx context.Context, id int64, c model.StatusChange) (*model.ProjectWithTotals, error)
	// DeleteDraft removes the project only while it is BROUILLON.
	DeleteDraft(ctx context.Context, id int64) (bool, error)
}

// MilestoneStore persists milestones.
type MilestoneStore interface {
	Insert(ctx context.Context, m *model.Milestone) error
	FindByID(ctx context.Context, id int64) (*model.Milestone, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Milestone, error)
	UpdateStatus(ctx context.Context, id int64, status model.MilestoneStatus) (*model.Milestone, error)
	// CountValidatedForClient counts VALIDÉ milestones on the client's projects.
	CountValidatedForClient(ctx context.Context, clientID string) (int, error)
}

// MessageStore persists project chat messages.
type MessageStore interface {
	Insert(ctx context.Context, m *model.ProjectChatMessage) error
	ListByProject(ctx context.Context, projectID int64) ([]model.ProjectChatMessage, error)
	// RecentReceived returns messages on the client's projects not sent by
	// the client, newest first.
	RecentReceived(ctx context.Context, clientID string, limit int) ([]model.MessageWithDetails, error)
	CountReceivedSince(ctx context.Context, clientID string, since time.Time) (int, error)
}

// DeliverableStore persists deliverables.
type DeliverableStore interface {
	Insert(ctx context.Context, d *model.Deliverable) error
	FindByID(ctx context.Context, id int64) (*model.DeliverableWithDetails, error)
	RecentForClient(ctx context.Context, clientID string, limit int) ([]model.DeliverableWithDetails, error)
	CountForClient(ctx context.Context, clientID string) (int, error)
}

// UserStore persists credentials of the bundled auth provider.
type UserStore interface {
	// CreateUser fails with apperr.ErrConflict when the email is taken.
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// notFound maps pgx.ErrNoRows to apperr.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return err
}

// observe records the duration of a query, labelled by outcome.
func observe(operation, table string, start time.Time, err *error) {
	result := "ok"
	if err != nil && *err != nil {
		if errors.Is(*err, apperr.ErrNotFound) {
			result = "not_found"
		} else {
			result = util.ClassifyDBError(*err)
		}
	}
	metrics.RecordDBQueryDuration(operation, table, result, time.Since(start))
}

func parseOptionalDepositType(s *string) (*model.DepositType, error) {
	if s == nil {
		return nil, nil
	}
	d, err := model.ParseDepositType(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
