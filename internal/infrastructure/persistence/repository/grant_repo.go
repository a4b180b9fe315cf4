package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
	"go.uber.org/zap"
)

// GrantRepository implements port.GrantRepository on sqlite.
type GrantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(db *sql.DB, logger *zap.Logger) port.GrantRepository {
	return &GrantRepository{
		db:     db,
		logger: logger,
	}
}

// Grant authorizes a role for the scope. Idempotent.
func (r *GrantRepository) Grant(ctx context.Context, grant *entity.AccessGrant) error {
	query := `
		INSERT INTO access_grants (scope, role_id, granted_by, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, role_id) DO NOTHING
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		grant.Scope, grant.RoleID, grant.GrantedBy, grant.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to grant role",
			zap.String("scope", grant.Scope), zap.String("role", grant.RoleID), zap.Error(err))
		return fmt.Errorf("failed to grant role: %w", err)
	}

	return nil
}

// Revoke removes a role grant from the scope.
func (r *GrantRepository) Revoke(ctx context.Context, scope, roleID string) error {
	query := `DELETE FROM access_grants WHERE scope = ? AND role_id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, scope, roleID)
	if err != nil {
		r.logger.Error("Failed to revoke role",
			zap.String("scope", scope), zap.String("role", roleID), zap.Error(err))
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	return nil
}

// ListRoles returns the scope's granted role IDs.
func (r *GrantRepository) ListRoles(ctx context.Context, scope string) ([]string, error) {
	query := `SELECT role_id FROM access_grants WHERE scope = ? ORDER BY role_id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, scope)
	if err != nil {
		r.logger.Error("Failed to list roles", zap.String("scope", scope), zap.Error(err))
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

// Verify interface compliance
var _ port.GrantRepository = (*GrantRepository)(nil)
