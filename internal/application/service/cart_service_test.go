package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

func newCartService(budgetRepo *mockBudgetRepo, requestRepo *mockRequestRepo, cfg CartConfig) *CartService {
	if budgetRepo == nil {
		budgetRepo = &mockBudgetRepo{}
	}
	if requestRepo == nil {
		requestRepo = &mockRequestRepo{}
	}
	return NewCartService(budgetRepo, requestRepo, &mockTxManager{}, cfg, &mockLogger{})
}

func TestCartService_AddItem_Validation(t *testing.T) {
	tests := []struct {
		name      string
		itemName  string
		unitPrice int64
		quantity  int64
		wantErr   bool
	}{
		{name: "valid item", itemName: "keyboard", unitPrice: 4500, quantity: 1},
		{name: "free item is valid", itemName: "sticker", unitPrice: 0, quantity: 10},
		{name: "empty name", itemName: "", unitPrice: 100, quantity: 1, wantErr: true},
		{name: "negative price", itemName: "monitor", unitPrice: -1, quantity: 1, wantErr: true},
		{name: "zero quantity", itemName: "monitor", unitPrice: 100, quantity: 0, wantErr: true},
		{name: "negative quantity", itemName: "monitor", unitPrice: 100, quantity: -2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newCartService(nil, nil, CartConfig{})
			draft, err := svc.AddItem(context.Background(), "team-1", "alice", tt.itemName, "", tt.unitPrice, tt.quantity)

			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			require.Len(t, draft.Items, 1)
			assert.Equal(t, tt.itemName, draft.Items[0].Name)
		})
	}
}

func TestCartService_AddItem_AccumulatesLines(t *testing.T) {
	svc := newCartService(nil, nil, CartConfig{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)
	draft, err := svc.AddItem(ctx, "team-1", "alice", "monitor", "https://shop/monitor", 30000, 2)
	require.NoError(t, err)

	require.Len(t, draft.Items, 2)
	assert.Equal(t, int64(4500+60000), draft.TotalAmount())
}

func TestCartService_DraftsArePerScopeAndRequester(t *testing.T) {
	svc := newCartService(nil, nil, CartConfig{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "team-2", "alice", "chair", "", 12000, 1)
	require.NoError(t, err)

	draft, err := svc.Get(ctx, "team-1", "alice")
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "keyboard", draft.Items[0].Name)

	_, err = svc.Get(ctx, "team-1", "bob")
	assert.ErrorIs(t, err, entity.ErrCartNotFound)
}

func TestCartService_RemoveItem(t *testing.T) {
	svc := newCartService(nil, nil, CartConfig{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "team-1", "alice", "monitor", "", 30000, 1)
	require.NoError(t, err)

	draft, err := svc.RemoveItem(ctx, "team-1", "alice", 0)
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "monitor", draft.Items[0].Name)

	_, err = svc.RemoveItem(ctx, "team-1", "alice", 5)
	assert.ErrorIs(t, err, entity.ErrInvalidAmount)

	_, err = svc.RemoveItem(ctx, "team-1", "bob", 0)
	assert.ErrorIs(t, err, entity.ErrCartNotFound)
}

func TestCartService_SelectBudget(t *testing.T) {
	budgetRepo := &mockBudgetRepo{
		listFunc: func(ctx context.Context, scope string) ([]*entity.Budget, error) {
			return []*entity.Budget{{Scope: scope, Name: "hardware", Balance: 100}}, nil
		},
	}
	svc := newCartService(budgetRepo, nil, CartConfig{})
	ctx := context.Background()

	draft, err := svc.SelectBudget(ctx, "team-1", "alice", "hardware")
	require.NoError(t, err)
	assert.Equal(t, "hardware", draft.BudgetName)

	_, err = svc.SelectBudget(ctx, "team-1", "alice", "travel")
	assert.ErrorIs(t, err, entity.ErrBudgetNotFound)
}

func TestCartService_IdleExpiry(t *testing.T) {
	svc := newCartService(nil, nil, CartConfig{IdleExpiry: 10 * time.Minute})
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	_, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)

	// Activity within the window keeps the draft alive
	svc.now = func() time.Time { return base.Add(9 * time.Minute) }
	_, err = svc.Get(ctx, "team-1", "alice")
	require.NoError(t, err)

	// The Get above did not touch the draft, so the clock still runs
	// from the AddItem
	svc.now = func() time.Time { return base.Add(11 * time.Minute) }
	_, err = svc.Get(ctx, "team-1", "alice")
	assert.ErrorIs(t, err, entity.ErrCartNotFound)
}

func TestCartService_Submit_Preconditions(t *testing.T) {
	budgetRepo := &mockBudgetRepo{
		listFunc: func(ctx context.Context, scope string) ([]*entity.Budget, error) {
			return []*entity.Budget{{Scope: scope, Name: "hardware"}}, nil
		},
	}
	svc := newCartService(budgetRepo, nil, CartConfig{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, "team-1", "alice")
	assert.ErrorIs(t, err, entity.ErrCartNotFound)

	_, err = svc.SelectBudget(ctx, "team-1", "alice", "hardware")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "team-1", "alice")
	assert.ErrorIs(t, err, entity.ErrEmptyCart)

	svc2 := newCartService(budgetRepo, nil, CartConfig{})
	_, err = svc2.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)
	_, err = svc2.Submit(ctx, "team-1", "alice")
	assert.ErrorIs(t, err, entity.ErrNoBudgetSelected)
}

func TestCartService_Submit_AdvisoryFundsCheck(t *testing.T) {
	budgetRepo := &mockBudgetRepo{
		listFunc: func(ctx context.Context, scope string) ([]*entity.Budget, error) {
			return []*entity.Budget{{Scope: scope, Name: "hardware"}}, nil
		},
		balanceFunc: func(ctx context.Context, scope, name string) (int64, error) {
			return 1000, nil
		},
	}
	svc := newCartService(budgetRepo, nil, CartConfig{CheckFundsAtSubmit: true})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "team-1", "alice", "monitor", "", 30000, 1)
	require.NoError(t, err)
	_, err = svc.SelectBudget(ctx, "team-1", "alice", "hardware")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "team-1", "alice")
	assert.ErrorIs(t, err, entity.ErrInsufficientBudget)

	// The draft survives the rejected submission
	draft, err := svc.Get(ctx, "team-1", "alice")
	require.NoError(t, err)
	assert.Len(t, draft.Items, 1)
}

func TestCartService_Submit_Success(t *testing.T) {
	budgetRepo := &mockBudgetRepo{
		listFunc: func(ctx context.Context, scope string) ([]*entity.Budget, error) {
			return []*entity.Budget{{Scope: scope, Name: "hardware"}}, nil
		},
	}
	var created *entity.Request
	requestRepo := &mockRequestRepo{
		createFunc: func(ctx context.Context, req *entity.Request) error {
			req.ID = 42
			created = req
			return nil
		},
	}
	svc := newCartService(budgetRepo, requestRepo, CartConfig{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "team-1", "alice", "monitor", "https://shop/monitor", 30000, 2)
	require.NoError(t, err)
	_, err = svc.SelectBudget(ctx, "team-1", "alice", "hardware")
	require.NoError(t, err)

	req, err := svc.Submit(ctx, "team-1", "alice")
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, int64(42), req.ID)
	assert.Equal(t, entity.StatusPending, req.Status)
	assert.Equal(t, int64(64500), req.TotalAmount)
	require.Len(t, req.Items, 2)
	assert.Equal(t, 0, req.Items[0].Position)
	assert.Equal(t, 1, req.Items[1].Position)
	assert.Equal(t, int64(60000), req.Items[1].Amount)

	// The draft is gone once the request exists
	_, err = svc.Get(ctx, "team-1", "alice")
	assert.ErrorIs(t, err, entity.ErrCartNotFound)
}

func TestCartService_Submit_FailureKeepsDraft(t *testing.T) {
	budgetRepo := &mockBudgetRepo{
		listFunc: func(ctx context.Context, scope string) ([]*entity.Budget, error) {
			return []*entity.Budget{{Scope: scope, Name: "hardware"}}, nil
		},
	}
	requestRepo := &mockRequestRepo{
		createFunc: func(ctx context.Context, req *entity.Request) error {
			return errors.New("disk full")
		},
	}
	svc := newCartService(budgetRepo, requestRepo, CartConfig{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)
	_, err = svc.SelectBudget(ctx, "team-1", "alice", "hardware")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "team-1", "alice")
	require.Error(t, err)

	draft, err := svc.Get(ctx, "team-1", "alice")
	require.NoError(t, err)
	assert.Len(t, draft.Items, 1)
}

func TestCartService_Cancel(t *testing.T) {
	svc := newCartService(nil, nil, CartConfig{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Cancel(ctx, "team-1", "alice"), entity.ErrCartNotFound)

	_, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, "team-1", "alice"))
	_, err = svc.Get(ctx, "team-1", "alice")
	assert.ErrorIs(t, err, entity.ErrCartNotFound)
}

func TestCartService_ReturnedDraftIsACopy(t *testing.T) {
	svc := newCartService(nil, nil, CartConfig{})
	ctx := context.Background()

	draft, err := svc.AddItem(ctx, "team-1", "alice", "keyboard", "", 4500, 1)
	require.NoError(t, err)

	draft.Items[0].Name = "mutated"

	fresh, err := svc.Get(ctx, "team-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "keyboard", fresh.Items[0].Name)
}
