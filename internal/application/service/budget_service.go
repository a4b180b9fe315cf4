package service

import (
	"context"
	"fmt"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

// BudgetService exposes the budget ledger: named balances per scope,
// credited by administrators and debited only through decisions.
type BudgetService struct {
	budgetRepo port.BudgetRepository
	logger     Logger
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo port.BudgetRepository, logger Logger) *BudgetService {
	return &BudgetService{
		budgetRepo: budgetRepo,
		logger:     logger,
	}
}

// Credit adds to a budget's balance, creating the budget at zero when it
// does not exist yet. Amounts must be positive.
func (s *BudgetService) Credit(ctx context.Context, scope, name string, amount int64) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: budget name is required", entity.ErrInvalidAmount)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", entity.ErrInvalidAmount)
	}

	if err := s.budgetRepo.Credit(ctx, scope, name, amount); err != nil {
		s.logger.Error("Failed to credit budget", "error", err, "scope", scope, "budget", name)
		return 0, err
	}

	balance, err := s.budgetRepo.Balance(ctx, scope, name)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Budget credited", "scope", scope, "budget", name, "amount", amount, "balance", balance)
	return balance, nil
}

// Balance returns a budget's balance, zero for unknown names. The read
// never creates a ledger entry.
func (s *BudgetService) Balance(ctx context.Context, scope, name string) (int64, error) {
	return s.budgetRepo.Balance(ctx, scope, name)
}

// List returns every budget in the scope.
func (s *BudgetService) List(ctx context.Context, scope string) ([]*entity.Budget, error) {
	return s.budgetRepo.List(ctx, scope)
}
