package memory

import (
	"context"
	"fmt"
	"sort"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
)

type Projects struct{ db *DB }

func (s *Projects) FindByID(_ context.Context, id int64) (*model.ProjectWithTotals, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.FindByID"); err != nil {
		return nil, err
	}
	p, ok := s.db.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	if err := checkStored(p); err != nil {
		return nil, err
	}
	return s.db.withTotals(p), nil
}

func (s *Projects) ListByClient(_ context.Context, clientID string) ([]model.ProjectWithTotals, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.ListByClient"); err != nil {
		return nil, err
	}
	out := []model.ProjectWithTotals{}
	for _, p := range s.db.projects {
		if p.ClientID != clientID {
			continue
		}
		if err := checkStored(p); err != nil {
			return nil, err
		}
		out = append(out, *s.db.withTotals(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Projects) FindIncompleteOnboarding(_ context.Context, clientID string) (*model.Project, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.FindIncompleteOnboarding"); err != nil {
		return nil, err
	}
	var found *model.Project
	for _, p := range s.db.projects {
		if p.ClientID != clientID || p.OnboardingCompleted {
			continue
		}
		if found == nil || p.CreatedAt.After(found.CreatedAt) {
			p := p
			found = &p
		}
	}
	if found != nil {
		if err := checkStored(*found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (s *Projects) ExistsCompletedOnboarding(_ context.Context, clientID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.ExistsCompletedOnboarding"); err != nil {
		return false, err
	}
	for _, p := range s.db.projects {
		if p.ClientID == clientID && p.OnboardingCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *Projects) Insert(_ context.Context, p *model.Project) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.Insert"); err != nil {
		return err
	}
	if err := checkProject(*p); err != nil {
		return err
	}
	if _, ok := s.db.profiles[p.ClientID]; !ok {
		return fmt.Errorf("client %s has no profile", p.ClientID)
	}
	if !p.OnboardingCompleted {
		for _, existing := range s.db.projects {
			if existing.ClientID == p.ClientID && !existing.OnboardingCompleted {
				return fmt.Errorf("client %s already has a project in onboarding: %w", p.ClientID, apperr.ErrConflict)
			}
		}
	}
	p.ID = s.db.id()
	p.CreatedAt = s.db.tick()
	s.db.projects[p.ID] = *p
	return nil
}

func (s *Projects) CompleteOnboarding(_ context.Context, id int64, title, description string) (*model.ProjectWithTotals, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.CompleteOnboarding"); err != nil {
		return nil, err
	}
	p, ok := s.db.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	p.Title = title
	p.Description = &description
	p.OnboardingCompleted = true
	s.db.projects[id] = p
	return s.db.withTotals(p), nil
}

func (s *Projects) Update(_ context.Context, id int64, u model.ProjectUpdate) (*model.ProjectWithTotals, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.Update"); err != nil {
		return nil, err
	}
	p, ok := s.db.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = u.Description
	}
	if u.ManagerID != nil {
		p.ManagerID = u.ManagerID
	}
	if u.DepositType != nil {
		if !u.DepositType.Valid() {
			return nil, apperr.Validation("deposit_type", string(*u.DepositType), "not in vocabulary")
		}
		p.DepositType = u.DepositType
	}
	if u.DepositValue != nil {
		p.DepositValue = u.DepositValue
	}
	if u.DepositPaid != nil {
		p.DepositPaid = *u.DepositPaid
	}
	if u.FinalBalancePaid != nil {
		p.FinalBalancePaid = *u.FinalBalancePaid
	}
	if u.PaymentMethodUsed != nil {
		p.PaymentMethodUsed = u.PaymentMethodUsed
	}
	s.db.projects[id] = p
	return s.db.withTotals(p), nil
}

func (s *Projects) ApplyStatusChange(_ context.Context, id int64, c model.StatusChange) (*model.ProjectWithTotals, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.ApplyStatusChange"); err != nil {
		return nil, err
	}
	if !c.To.Valid() {
		return nil, apperr.Validation("status", string(c.To), "not in vocabulary")
	}
	p, ok := s.db.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	if p.Status != c.From {
		return nil, fmt.Errorf("project %d no longer in status %s: %w", id, c.From, apperr.ErrConflict)
	}
	p.Status = c.To
	if c.SubmittedAt != nil {
		p.SubmittedAt = c.SubmittedAt
	}
	if c.StartedAt != nil {
		p.StartedAt = c.StartedAt
	}
	if c.CompletedAt != nil {
		p.CompletedAt = c.CompletedAt
	}
	s.db.projects[id] = p
	return s.db.withTotals(p), nil
}

func (s *Projects) DeleteDraft(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("projects.DeleteDraft"); err != nil {
		return false, err
	}
	p, ok := s.db.projects[id]
	if !ok || p.Status != model.StatusDraft {
		return false, nil
	}
	delete(s.db.projects, id)
	for mid, m := range s.db.milestones {
		if m.ProjectID == id {
			delete(s.db.milestones, mid)
		}
	}
	for cid, m := range s.db.messages {
		if m.ProjectID == id {
			delete(s.db.messages, cid)
		}
	}
	return true, nil
}

// Put stores p as is, bypassing validation and the onboarding index. When
// p.ID is zero a new id is assigned; when p.CreatedAt is zero the store
// clock is used. The stored id is returned.
func (s *Projects) Put(p model.Project) int64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.db.id()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.db.tick()
	}
	s.db.projects[p.ID] = p
	return p.ID
}

// checkStored is checkProject on the read path, where a bad value is
// corrupt data.
func checkStored(p model.Project) error {
	if err := checkProject(p); err != nil {
		return apperr.SchemaViolation(fmt.Sprintf("project %d", p.ID), err)
	}
	return nil
}

// checkProject rejects rows carrying values outside the vocabularies, the
// way the SQL store does when scanning.
func checkProject(p model.Project) error {
	if !p.ProjectType.Valid() {
		return apperr.Validation("project_type", string(p.ProjectType), "not in vocabulary")
	}
	if !p.Status.Valid() {
		return apperr.Validation("status", string(p.Status), "not in vocabulary")
	}
	if p.DepositType != nil && !p.DepositType.Valid() {
		return apperr.Validation("deposit_type", string(*p.DepositType), "not in vocabulary")
	}
	return nil
}
