// Package auth is the bundled credential provider: sign-up, sign-in and
// sign-out with bcrypt hashes, JWT session tokens and Redis revocation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/internal/repository"
	"dgtech/internal/service/profile"
	"dgtech/pkg/logger"
	"dgtech/pkg/util"
)

const MinPasswordLength = 6

// Revoker remembers signed-out tokens. *util.TokenRevoker satisfies it.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) bool
}

type Service struct {
	users    repository.UserStore
	profiles *profile.Service
	revoker  Revoker
	secret   string
	ttl      time.Duration
	logger   *zap.Logger
}

// NewService builds the auth service. revoker may be nil, in which case
// sign-out does not invalidate tokens server-side.
func NewService(users repository.UserStore, profiles *profile.Service, revoker Revoker, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		revoker:  revoker,
		secret:   secret,
		ttl:      ttl,
		logger:   logger,
	}
}

// Session is a signed-in user's token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("email", email, "not a valid address")
	}
	return email, nil
}

// SignUp registers a user and bootstraps their profile. A profile failure
// does not undo the registration: the profile is ensured again on first
// project creation.
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (*model.User, error) {
	log := logger.WithTrace(ctx, s.logger)

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperr.Validation("password", "", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			log.Error("Failed to create user", zap.Error(err))
		}
		return nil, apperr.Backend("sign up", err)
	}
	log.Info("User registered", zap.String("user_id", u.ID))

	if _, err := s.profiles.EnsureProfile(ctx, u.ID, email); err != nil {
		log.Warn("Profile bootstrap after sign-up failed", zap.String("user_id", u.ID), zap.Error(err))
		return u, nil
	}
	if name := strings.TrimSpace(fullName); name != "" {
		if _, err := s.profiles.UpdateProfile(ctx, u.ID, model.ProfileUpdate{FullName: &name}); err != nil {
			log.Warn("Failed to set full name after sign-up", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return u, nil
}

// SignIn checks credentials and issues a session token. Unknown email and
// wrong password fail identically.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
		}
		logger.WithTrace(ctx, s.logger).Error("Failed to look up user", zap.Error(err))
		return nil, apperr.Backend("sign in", err)
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	}

	token, _, err := util.GenerateJWT(u.ID, u.Email, s.secret, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{
		Token:     token,
		UserID:    u.ID,
		Email:     u.Email,
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}

// SignOut revokes the token identified by jti until it would have expired.
func (s *Service) SignOut(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, time.Until(expiresAt)); err != nil {
		logger.WithTrace(ctx, s.logger).Error("Failed to revoke token", zap.String("jti", jti), zap.Error(err))
		return apperr.Backend("sign out", err)
	}
	return nil
}

// Authenticate validates a bearer token and returns its claims.
func (s *Service) Authenticate(ctx context.Context, token string) (*util.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", apperr.ErrUnauthorized)
	}
	claims, err := util.ParseJWT(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", apperr.ErrUnauthorized)
	}
	if s.revoker != nil && s.revoker.IsRevoked(ctx, claims.ID) {
		return nil, fmt.Errorf("token revoked: %w", apperr.ErrUnauthorized)
	}
	return claims, nil
}
