package project

import (
	"context"
	"fmt"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/pkg/rbac"
)

// GetProjectFor returns the project if principal may see it. Owner-scoped
// roles get apperr.ErrNotFound for projects they do not own, so foreign ids
// are indistinguishable from missing ones.
func (s *Service) GetProjectFor(ctx context.Context, principal model.Principal, id int64) (*model.ProjectWithTotals, error) {
	p, err := s.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckAccess(principal, p.Project); err != nil {
		return nil, err
	}
	return p, nil
}

// CheckAccess applies the role's read scope to p.
func CheckAccess(principal model.Principal, p model.Project) error {
	if rbac.CapabilitiesFor(string(principal.Role)).OwnerScoped && p.ClientID != principal.UserID {
		return fmt.Errorf("project %d: %w", p.ID, apperr.ErrNotFound)
	}
	return nil
}

// CheckOwner requires principal to own p. Used by client-side writes.
func CheckOwner(principal model.Principal, p model.Project) error {
	if p.ClientID != principal.UserID {
		if rbac.CapabilitiesFor(string(principal.Role)).OwnerScoped {
			return fmt.Errorf("project %d: %w", p.ID, apperr.ErrNotFound)
		}
		return fmt.Errorf("project %d: %w", p.ID, apperr.ErrForbidden)
	}
	return nil
}
