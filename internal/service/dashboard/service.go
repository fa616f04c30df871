// Package dashboard aggregates the client dashboard. Every figure degrades
// to zero or an empty list when its query fails.
package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dgtech/internal/model"
	"dgtech/internal/repository"
	"dgtech/pkg/logger"
)

const (
	DefaultLimit = 5
	unreadWindow = 24 * time.Hour
)

type Stats struct {
	TotalProjects       int `json:"total_projects"`
	ActiveProjects      int `json:"active_projects"`
	CompletedMilestones int `json:"completed_milestones"`
	UnreadMessages      int `json:"unread_messages"`
	TotalDocuments      int `json:"total_documents"`
}

type Service struct {
	projects     repository.ProjectStore
	milestones   repository.MilestoneStore
	messages     repository.MessageStore
	deliverables repository.DeliverableStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(
	projects repository.ProjectStore,
	milestones repository.MilestoneStore,
	messages repository.MessageStore,
	deliverables repository.DeliverableStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		projects:     projects,
		milestones:   milestones,
		messages:     messages,
		deliverables: deliverables,
		logger:       logger,
		now:          time.Now,
	}
}

// Stats computes the dashboard counters of clientID.
func (s *Service) Stats(ctx context.Context, clientID string) Stats {
	log := logger.WithTrace(ctx, s.logger).With(zap.String("client_id", clientID))
	var st Stats

	if projects, err := s.projects.ListByClient(ctx, clientID); err != nil {
		log.Warn("Dashboard projects query failed", zap.Error(err))
	} else {
		st.TotalProjects = len(projects)
		for _, p := range projects {
			if p.Status == model.StatusActive {
				st.ActiveProjects++
			}
		}
	}

	if n, err := s.milestones.CountValidatedForClient(ctx, clientID); err != nil {
		log.Warn("Dashboard milestones query failed", zap.Error(err))
	} else {
		st.CompletedMilestones = n
	}

	if n, err := s.messages.CountReceivedSince(ctx, clientID, s.now().Add(-unreadWindow)); err != nil {
		log.Warn("Dashboard messages query failed", zap.Error(err))
	} else {
		st.UnreadMessages = n
	}

	if n, err := s.deliverables.CountForClient(ctx, clientID); err != nil {
		log.Warn("Dashboard documents query failed", zap.Error(err))
	} else {
		st.TotalDocuments = n
	}

	return st
}

// RecentMessages returns the latest messages the client received.
func (s *Service) RecentMessages(ctx context.Context, clientID string, limit int) []model.MessageWithDetails {
	if limit <= 0 {
		limit = DefaultLimit
	}
	msgs, err := s.messages.RecentReceived(ctx, clientID, limit)
	if err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Recent messages query failed", zap.String("client_id", clientID), zap.Error(err))
		return []model.MessageWithDetails{}
	}
	return msgs
}

// RecentDocuments returns the latest deliverables on the client's projects.
func (s *Service) RecentDocuments(ctx context.Context, clientID string, limit int) []model.DeliverableWithDetails {
	if limit <= 0 {
		limit = DefaultLimit
	}
	docs, err := s.deliverables.RecentForClient(ctx, clientID, limit)
	if err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Recent documents query failed", zap.String("client_id", clientID), zap.Error(err))
		return []model.DeliverableWithDetails{}
	}
	return docs
}
