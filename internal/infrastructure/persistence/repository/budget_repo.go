package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
	"go.uber.org/zap"
)

// BudgetRepository implements port.BudgetRepository on sqlite.
type BudgetRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBudgetRepository creates a new budget repository
func NewBudgetRepository(db *sql.DB, logger *zap.Logger) port.BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

// Credit adds to a budget's balance, creating the row when absent.
func (r *BudgetRepository) Credit(ctx context.Context, scope, name string, amount int64) error {
	query := `
		INSERT INTO budgets (scope, name, balance, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scope, name)
		DO UPDATE SET balance = balance + excluded.balance, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, scope, name, amount); err != nil {
		r.logger.Error("Failed to credit budget",
			zap.String("scope", scope), zap.String("budget", name), zap.Error(err))
		return fmt.Errorf("failed to credit budget: %w", err)
	}

	return nil
}

// Debit subtracts from a budget's balance. With enforceBalance the write is
// conditional on the balance covering the amount, so a losing race reports
// insufficient funds instead of going negative. An unknown budget reads as
// zero, so a guarded debit against it also lacks funds.
func (r *BudgetRepository) Debit(ctx context.Context, scope, name string, amount int64, enforceBalance bool) error {
	query := `UPDATE budgets SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP WHERE scope = ? AND name = ?`
	args := []interface{}{amount, scope, name}
	if enforceBalance {
		query += ` AND balance >= ?`
		args = append(args, amount)
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to debit budget",
			zap.String("scope", scope), zap.String("budget", name), zap.Error(err))
		return fmt.Errorf("failed to debit budget: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		if enforceBalance {
			// Either the balance guard held or the budget has never been
			// credited, which reads as a zero balance
			return entity.ErrInsufficientBudget
		}
		// Unguarded debit of a never-credited budget materializes the
		// overdrawn row
		return r.Credit(ctx, scope, name, -amount)
	}

	return nil
}

// Balance returns a budget's balance, zero when the budget does not exist.
func (r *BudgetRepository) Balance(ctx context.Context, scope, name string) (int64, error) {
	query := `SELECT balance FROM budgets WHERE scope = ? AND name = ?`

	var balance int64
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, scope, name).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		r.logger.Error("Failed to read balance",
			zap.String("scope", scope), zap.String("budget", name), zap.Error(err))
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	return balance, nil
}

// List returns every budget in the scope ordered by name.
func (r *BudgetRepository) List(ctx context.Context, scope string) ([]*entity.Budget, error) {
	query := `SELECT scope, name, balance, updated_at FROM budgets WHERE scope = ? ORDER BY name`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, scope)
	if err != nil {
		r.logger.Error("Failed to list budgets", zap.String("scope", scope), zap.Error(err))
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*entity.Budget
	for rows.Next() {
		var b entity.Budget
		if err := rows.Scan(&b.Scope, &b.Name, &b.Balance, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, &b)
	}

	return budgets, rows.Err()
}

// Verify interface compliance
var _ port.BudgetRepository = (*BudgetRepository)(nil)
