package memory

import (
	"context"
	"fmt"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
)

type Profiles struct{ db *DB }

func (s *Profiles) FindByID(_ context.Context, id string) (*model.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("profiles.FindByID"); err != nil {
		return nil, err
	}
	p, ok := s.db.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	return &p, nil
}

func (s *Profiles) Insert(_ context.Context, p *model.Profile) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("profiles.Insert"); err != nil {
		return false, err
	}
	if !p.Role.Valid() {
		return false, apperr.Validation("role", string(p.Role), "not in vocabulary")
	}
	if _, ok := s.db.profiles[p.ID]; ok {
		return false, nil
	}
	p.CreatedAt = s.db.tick()
	s.db.profiles[p.ID] = *p
	return true, nil
}

func (s *Profiles) Update(_ context.Context, id string, u model.ProfileUpdate) (*model.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("profiles.Update"); err != nil {
		return nil, err
	}
	p, ok := s.db.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	if u.FullName != nil {
		p.FullName = u.FullName
	}
	if u.AvatarURL != nil {
		p.AvatarURL = u.AvatarURL
	}
	s.db.profiles[id] = p
	return &p, nil
}

func (s *Profiles) UpdateRole(_ context.Context, id string, role model.Role) (*model.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("profiles.UpdateRole"); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation("role", string(role), "not in vocabulary")
	}
	p, ok := s.db.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	p.Role = role
	s.db.profiles[id] = p
	return &p, nil
}

// Put stores p as is, bypassing validation. Tests use it to seed rows,
// including rows carrying values outside the vocabulary.
func (s *Profiles) Put(p model.Profile) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.profiles[p.ID] = p
}

type Users struct{ db *DB }

func (s *Users) CreateUser(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("users.CreateUser"); err != nil {
		return err
	}
	for _, existing := range s.db.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email %s: %w", u.Email, apperr.ErrConflict)
		}
	}
	u.CreatedAt = s.db.tick()
	s.db.users[u.ID] = *u
	return nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("users.FindByEmail"); err != nil {
		return nil, err
	}
	for _, u := range s.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user", email)
}
