package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

// AccessService resolves whether a principal may decide requests in a scope
// and manages the per-scope approver role set. Role membership itself is
// resolved by the host platform; callers pass the principal's role IDs.
type AccessService struct {
	grantRepo    port.GrantRepository
	fallbackRole string
	logger       Logger
}

// NewAccessService creates a new AccessService. fallbackRole may be empty;
// when set it authorizes approvers in every scope.
func NewAccessService(grantRepo port.GrantRepository, fallbackRole string, logger Logger) *AccessService {
	return &AccessService{
		grantRepo:    grantRepo,
		fallbackRole: fallbackRole,
		logger:       logger,
	}
}

// CanApprove reports whether any of the principal's roles is granted for
// the scope. A scope with no grants and no global fallback is unconfigured.
func (s *AccessService) CanApprove(ctx context.Context, scope string, roles []string) (bool, error) {
	granted, err := s.grantRepo.ListRoles(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("list granted roles: %w", err)
	}

	if len(granted) == 0 && s.fallbackRole == "" {
		return false, entity.ErrScopeNotConfigured
	}

	allowed := make(map[string]bool, len(granted)+1)
	for _, r := range granted {
		allowed[r] = true
	}
	if s.fallbackRole != "" {
		allowed[s.fallbackRole] = true
	}

	for _, r := range roles {
		if allowed[r] {
			return true, nil
		}
	}
	return false, nil
}

// GrantRole authorizes a role to decide requests in the scope. Granting an
// already-granted role is a no-op.
func (s *AccessService) GrantRole(ctx context.Context, scope, roleID, grantedBy string) error {
	if roleID == "" {
		return fmt.Errorf("role id is required")
	}

	err := s.grantRepo.Grant(ctx, &entity.AccessGrant{
		Scope:     scope,
		RoleID:    roleID,
		GrantedBy: grantedBy,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("Failed to grant role", "error", err, "scope", scope, "role", roleID)
		return err
	}

	s.logger.Info("Role granted", "scope", scope, "role", roleID, "granted_by", grantedBy)
	return nil
}

// RevokeRole removes a role from the scope's approver set.
func (s *AccessService) RevokeRole(ctx context.Context, scope, roleID string) error {
	if err := s.grantRepo.Revoke(ctx, scope, roleID); err != nil {
		s.logger.Error("Failed to revoke role", "error", err, "scope", scope, "role", roleID)
		return err
	}

	s.logger.Info("Role revoked", "scope", scope, "role", roleID)
	return nil
}

// ListRoles returns the scope's granted approver roles.
func (s *AccessService) ListRoles(ctx context.Context, scope string) ([]string, error) {
	return s.grantRepo.ListRoles(ctx, scope)
}
