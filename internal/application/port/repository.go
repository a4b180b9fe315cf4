package port

import (
	"context"

	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

// BudgetRepository defines persistence operations for the budget ledger.
// Balance reads never create rows; an unknown budget reads as zero.
type BudgetRepository interface {
	Credit(ctx context.Context, scope, name string, amount int64) error
	// Debit subtracts amount from the balance. When enforceBalance is true
	// the debit fails with entity.ErrInsufficientBudget rather than taking
	// the balance below zero.
	Debit(ctx context.Context, scope, name string, amount int64, enforceBalance bool) error
	Balance(ctx context.Context, scope, name string) (int64, error)
	List(ctx context.Context, scope string) ([]*entity.Budget, error)
}

// RequestRepository defines persistence operations for purchase requests.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, scope string, id int64) (*entity.Request, error)
	ListByRequester(ctx context.Context, scope, requester string) ([]*entity.Request, error)
	// Decide transitions the request out of fromStatus in one conditional
	// write. It returns entity.ErrAlreadyDecided when the request is no
	// longer in fromStatus.
	Decide(ctx context.Context, req *entity.Request, fromStatus string) error
}

// AuditRepository defines persistence operations for the append-only audit log.
type AuditRepository interface {
	Append(ctx context.Context, records []*entity.AuditRecord) error
	Query(ctx context.Context, scope, requester string) ([]*entity.AuditRecord, error)
}

// GrantRepository defines persistence operations for per-scope approver roles.
type GrantRepository interface {
	Grant(ctx context.Context, grant *entity.AccessGrant) error
	Revoke(ctx context.Context, scope, roleID string) error
	ListRoles(ctx context.Context, scope string) ([]string, error)
}

// ChannelRepository defines persistence operations for operating channels.
type ChannelRepository interface {
	Register(ctx context.Context, ch *entity.Channel) error
	Unregister(ctx context.Context, scope, channelID string) error
	List(ctx context.Context, scope string) ([]string, error)
}

// TransactionManager executes a function within a database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
