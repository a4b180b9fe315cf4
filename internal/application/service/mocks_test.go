package service

import (
	"context"

	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

// Mock repositories

type mockBudgetRepo struct {
	creditFunc  func(ctx context.Context, scope, name string, amount int64) error
	debitFunc   func(ctx context.Context, scope, name string, amount int64, enforceBalance bool) error
	balanceFunc func(ctx context.Context, scope, name string) (int64, error)
	listFunc    func(ctx context.Context, scope string) ([]*entity.Budget, error)
}

func (m *mockBudgetRepo) Credit(ctx context.Context, scope, name string, amount int64) error {
	if m.creditFunc != nil {
		return m.creditFunc(ctx, scope, name, amount)
	}
	return nil
}

func (m *mockBudgetRepo) Debit(ctx context.Context, scope, name string, amount int64, enforceBalance bool) error {
	if m.debitFunc != nil {
		return m.debitFunc(ctx, scope, name, amount, enforceBalance)
	}
	return nil
}

func (m *mockBudgetRepo) Balance(ctx context.Context, scope, name string) (int64, error) {
	if m.balanceFunc != nil {
		return m.balanceFunc(ctx, scope, name)
	}
	return 0, nil
}

func (m *mockBudgetRepo) List(ctx context.Context, scope string) ([]*entity.Budget, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, scope)
	}
	return []*entity.Budget{}, nil
}

type mockRequestRepo struct {
	createFunc          func(ctx context.Context, req *entity.Request) error
	getByIDFunc         func(ctx context.Context, scope string, id int64) (*entity.Request, error)
	listByRequesterFunc func(ctx context.Context, scope, requester string) ([]*entity.Request, error)
	decideFunc          func(ctx context.Context, req *entity.Request, fromStatus string) error
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	req.ID = 1
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, scope string, id int64) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, scope, id)
	}
	return nil, nil
}

func (m *mockRequestRepo) ListByRequester(ctx context.Context, scope, requester string) ([]*entity.Request, error) {
	if m.listByRequesterFunc != nil {
		return m.listByRequesterFunc(ctx, scope, requester)
	}
	return []*entity.Request{}, nil
}

func (m *mockRequestRepo) Decide(ctx context.Context, req *entity.Request, fromStatus string) error {
	if m.decideFunc != nil {
		return m.decideFunc(ctx, req, fromStatus)
	}
	return nil
}

type mockAuditRepo struct {
	appendFunc func(ctx context.Context, records []*entity.AuditRecord) error
	queryFunc  func(ctx context.Context, scope, requester string) ([]*entity.AuditRecord, error)
}

func (m *mockAuditRepo) Append(ctx context.Context, records []*entity.AuditRecord) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, records)
	}
	return nil
}

func (m *mockAuditRepo) Query(ctx context.Context, scope, requester string) ([]*entity.AuditRecord, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, scope, requester)
	}
	return []*entity.AuditRecord{}, nil
}

type mockGrantRepo struct {
	grantFunc     func(ctx context.Context, grant *entity.AccessGrant) error
	revokeFunc    func(ctx context.Context, scope, roleID string) error
	listRolesFunc func(ctx context.Context, scope string) ([]string, error)
}

func (m *mockGrantRepo) Grant(ctx context.Context, grant *entity.AccessGrant) error {
	if m.grantFunc != nil {
		return m.grantFunc(ctx, grant)
	}
	return nil
}

func (m *mockGrantRepo) Revoke(ctx context.Context, scope, roleID string) error {
	if m.revokeFunc != nil {
		return m.revokeFunc(ctx, scope, roleID)
	}
	return nil
}

func (m *mockGrantRepo) ListRoles(ctx context.Context, scope string) ([]string, error) {
	if m.listRolesFunc != nil {
		return m.listRolesFunc(ctx, scope)
	}
	return []string{}, nil
}

type mockChannelRepo struct {
	registerFunc   func(ctx context.Context, ch *entity.Channel) error
	unregisterFunc func(ctx context.Context, scope, channelID string) error
	listFunc       func(ctx context.Context, scope string) ([]string, error)
}

func (m *mockChannelRepo) Register(ctx context.Context, ch *entity.Channel) error {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, ch)
	}
	return nil
}

func (m *mockChannelRepo) Unregister(ctx context.Context, scope, channelID string) error {
	if m.unregisterFunc != nil {
		return m.unregisterFunc(ctx, scope, channelID)
	}
	return nil
}

func (m *mockChannelRepo) List(ctx context.Context, scope string) ([]string, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, scope)
	}
	return []string{}, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
