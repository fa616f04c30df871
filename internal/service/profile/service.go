// Package profile bootstraps and maintains the portal profile of an
// authenticated user.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/internal/repository"
	"dgtech/pkg/logger"
)

type Service struct {
	profiles repository.ProfileStore
	logger   *zap.Logger
}

func NewService(profiles repository.ProfileStore, logger *zap.Logger) *Service {
	return &Service{profiles: profiles, logger: logger}
}

// EnsureProfile makes sure userID has a profile. An existing profile is
// left untouched and no insert is attempted. A missing one is created with
// role client and a display name taken from the local part of emailHint.
// Any failure wraps apperr.ErrProfileBootstrap.
func (s *Service) EnsureProfile(ctx context.Context, userID, emailHint string) (*model.Profile, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.String("user_id", userID))

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("empty user id: %w", apperr.ErrProfileBootstrap)
	}

	existing, err := s.profiles.FindByID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		log.Error("Profile lookup failed", zap.Error(err))
		return nil, fmt.Errorf("lookup profile %s: %w: %w", userID, apperr.ErrProfileBootstrap, err)
	}

	p := &model.Profile{ID: userID, Role: model.RoleClient}
	if name := LocalPart(emailHint); name != "" {
		p.FullName = &name
	}
	if _, err := s.profiles.Insert(ctx, p); err != nil {
		log.Error("Profile creation failed", zap.Error(err))
		return nil, fmt.Errorf("create profile %s: %w: %w", userID, apperr.ErrProfileBootstrap, err)
	}

	log.Info("Profile created", zap.String("role", string(p.Role)))
	return p, nil
}

// LocalPart returns the part of email before the '@'.
func LocalPart(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			logger.WithTrace(ctx, s.logger).Error("Failed to get profile", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, apperr.Backend("get profile", err)
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, u model.ProfileUpdate) (*model.Profile, error) {
	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		u.FullName = &name
	}
	p, err := s.profiles.Update(ctx, userID, u)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			logger.WithTrace(ctx, s.logger).Error("Failed to update profile", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, apperr.Backend("update profile", err)
	}
	return p, nil
}

// SetRole changes the role of userID, creating a bare profile first when
// the user has never signed in.
func (s *Service) SetRole(ctx context.Context, userID string, role model.Role) (*model.Profile, error) {
	if !role.Valid() {
		return nil, apperr.Validation("role", string(role), "not in vocabulary")
	}
	if _, err := s.EnsureProfile(ctx, userID, ""); err != nil {
		return nil, err
	}
	p, err := s.profiles.UpdateRole(ctx, userID, role)
	if err != nil {
		logger.WithTrace(ctx, s.logger).Error("Failed to set role", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Backend("set role", err)
	}
	logger.WithTrace(ctx, s.logger).Info("Profile role set", zap.String("user_id", userID), zap.String("role", string(role)))
	return p, nil
}

// RoleOf returns the role of userID. A user without a profile is a client.
func (s *Service) RoleOf(ctx context.Context, userID string) (model.Role, error) {
	p, err := s.profiles.FindByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.RoleClient, nil
	}
	if err != nil {
		logger.WithTrace(ctx, s.logger).Error("Failed to resolve role", zap.String("user_id", userID), zap.Error(err))
		return "", apperr.Backend("resolve role", err)
	}
	return p.Role, nil
}
