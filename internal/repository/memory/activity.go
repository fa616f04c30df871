package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
)

type Milestones struct{ db *DB }

func (s *Milestones) Insert(_ context.Context, m *model.Milestone) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("milestones.Insert"); err != nil {
		return err
	}
	if !m.Status.Valid() {
		return apperr.Validation("milestone_status", string(m.Status), "not in vocabulary")
	}
	if m.Price < 0 {
		return apperr.Validation("price", fmt.Sprint(m.Price), "must not be negative")
	}
	if _, ok := s.db.projects[m.ProjectID]; !ok {
		return notFound("project", m.ProjectID)
	}
	m.ID = s.db.id()
	s.db.milestones[m.ID] = *m
	return nil
}

func (s *Milestones) FindByID(_ context.Context, id int64) (*model.Milestone, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("milestones.FindByID"); err != nil {
		return nil, err
	}
	m, ok := s.db.milestones[id]
	if !ok {
		return nil, notFound("milestone", id)
	}
	return &m, nil
}

func (s *Milestones) ListByProject(_ context.Context, projectID int64) ([]model.Milestone, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("milestones.ListByProject"); err != nil {
		return nil, err
	}
	out := []model.Milestone{}
	for _, m := range s.db.milestones {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Milestones) UpdateStatus(_ context.Context, id int64, status model.MilestoneStatus) (*model.Milestone, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("milestones.UpdateStatus"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Validation("milestone_status", string(status), "not in vocabulary")
	}
	m, ok := s.db.milestones[id]
	if !ok {
		return nil, notFound("milestone", id)
	}
	m.Status = status
	s.db.milestones[id] = m
	return &m, nil
}

func (s *Milestones) CountValidatedForClient(_ context.Context, clientID string) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("milestones.CountValidatedForClient"); err != nil {
		return 0, err
	}
	n := 0
	for _, m := range s.db.milestones {
		if m.Status == model.MilestoneValidated && s.db.projects[m.ProjectID].ClientID == clientID {
			n++
		}
	}
	return n, nil
}

type Messages struct{ db *DB }

func (s *Messages) Insert(_ context.Context, m *model.ProjectChatMessage) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("messages.Insert"); err != nil {
		return err
	}
	if _, ok := s.db.projects[m.ProjectID]; !ok {
		return notFound("project", m.ProjectID)
	}
	m.ID = s.db.id()
	m.CreatedAt = s.db.tick()
	s.db.messages[m.ID] = *m
	return nil
}

func (s *Messages) ListByProject(_ context.Context, projectID int64) ([]model.ProjectChatMessage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("messages.ListByProject"); err != nil {
		return nil, err
	}
	out := []model.ProjectChatMessage{}
	for _, m := range s.db.messages {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Messages) received(clientID string, since time.Time) []model.ProjectChatMessage {
	out := []model.ProjectChatMessage{}
	for _, m := range s.db.messages {
		p, ok := s.db.projects[m.ProjectID]
		if !ok || p.ClientID != clientID || m.SenderID == clientID || m.CreatedAt.Before(since) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Messages) RecentReceived(_ context.Context, clientID string, limit int) ([]model.MessageWithDetails, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("messages.RecentReceived"); err != nil {
		return nil, err
	}
	out := []model.MessageWithDetails{}
	for _, m := range s.received(clientID, time.Time{}) {
		if len(out) == limit {
			break
		}
		d := model.MessageWithDetails{ProjectChatMessage: m, ProjectTitle: s.db.projects[m.ProjectID].Title}
		if sender, ok := s.db.profiles[m.SenderID]; ok {
			d.SenderName = sender.FullName
			d.SenderAvatar = sender.AvatarURL
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Messages) CountReceivedSince(_ context.Context, clientID string, since time.Time) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("messages.CountReceivedSince"); err != nil {
		return 0, err
	}
	return len(s.received(clientID, since)), nil
}

type Deliverables struct{ db *DB }

func (s *Deliverables) details(d model.Deliverable) model.DeliverableWithDetails {
	m := s.db.milestones[d.MilestoneID]
	return model.DeliverableWithDetails{
		Deliverable:    d,
		MilestoneTitle: m.Title,
		ProjectID:      m.ProjectID,
		ProjectTitle:   s.db.projects[m.ProjectID].Title,
	}
}

func (s *Deliverables) Insert(_ context.Context, d *model.Deliverable) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("deliverables.Insert"); err != nil {
		return err
	}
	if _, ok := s.db.milestones[d.MilestoneID]; !ok {
		return notFound("milestone", d.MilestoneID)
	}
	d.ID = s.db.id()
	d.CreatedAt = s.db.tick()
	s.db.deliverables[d.ID] = *d
	return nil
}

func (s *Deliverables) FindByID(_ context.Context, id int64) (*model.DeliverableWithDetails, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("deliverables.FindByID"); err != nil {
		return nil, err
	}
	d, ok := s.db.deliverables[id]
	if !ok {
		return nil, notFound("deliverable", id)
	}
	out := s.details(d)
	return &out, nil
}

func (s *Deliverables) forClient(clientID string) []model.DeliverableWithDetails {
	out := []model.DeliverableWithDetails{}
	for _, d := range s.db.deliverables {
		det := s.details(d)
		if s.db.projects[det.ProjectID].ClientID == clientID {
			out = append(out, det)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Deliverables) RecentForClient(_ context.Context, clientID string, limit int) ([]model.DeliverableWithDetails, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("deliverables.RecentForClient"); err != nil {
		return nil, err
	}
	out := s.forClient(clientID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Deliverables) CountForClient(_ context.Context, clientID string) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("deliverables.CountForClient"); err != nil {
		return 0, err
	}
	return len(s.forClient(clientID)), nil
}
