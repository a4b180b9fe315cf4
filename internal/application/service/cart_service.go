package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CartConfig controls draft lifetime and the advisory submit-time funds check.
type CartConfig struct {
	IdleExpiry         time.Duration
	CheckFundsAtSubmit bool
}

// CartService manages in-progress purchase drafts. Drafts live in memory
// only, one per (scope, requester); nothing is persisted until Submit.
type CartService struct {
	mu     sync.Mutex
	drafts map[cartKey]*entity.CartDraft

	budgetRepo  port.BudgetRepository
	requestRepo port.RequestRepository
	txManager   port.TransactionManager
	cfg         CartConfig
	now         func() time.Time
	logger      Logger
}

type cartKey struct {
	scope     string
	requester string
}

// NewCartService creates a new CartService
func NewCartService(
	budgetRepo port.BudgetRepository,
	requestRepo port.RequestRepository,
	txManager port.TransactionManager,
	cfg CartConfig,
	logger Logger,
) *CartService {
	if cfg.IdleExpiry <= 0 {
		cfg.IdleExpiry = 10 * time.Minute
	}
	return &CartService{
		drafts:      make(map[cartKey]*entity.CartDraft),
		budgetRepo:  budgetRepo,
		requestRepo: requestRepo,
		txManager:   txManager,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
	}
}

// AddItem appends a line to the requester's draft, creating the draft on
// first use. Unit price must be non-negative and quantity positive.
func (s *CartService) AddItem(ctx context.Context, scope, requester, name, link string, unitPrice, quantity int64) (*entity.CartDraft, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", entity.ErrInvalidAmount)
	}
	if unitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must not be negative", entity.ErrInvalidAmount)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be positive", entity.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cartKey{scope, requester}
	draft := s.liveDraft(key)
	if draft == nil {
		draft = &entity.CartDraft{
			Scope:     scope,
			Requester: requester,
			CreatedAt: s.now(),
		}
		s.drafts[key] = draft
	}

	draft.Items = append(draft.Items, entity.DraftItem{
		Name:      name,
		Link:      link,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	})
	draft.UpdatedAt = s.now()

	return copyDraft(draft), nil
}

// RemoveItem deletes the line at the given position.
func (s *CartService) RemoveItem(ctx context.Context, scope, requester string, position int) (*entity.CartDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.liveDraft(cartKey{scope, requester})
	if draft == nil {
		return nil, entity.ErrCartNotFound
	}
	if position < 0 || position >= len(draft.Items) {
		return nil, fmt.Errorf("%w: no item at position %d", entity.ErrInvalidAmount, position)
	}

	draft.Items = append(draft.Items[:position], draft.Items[position+1:]...)
	draft.UpdatedAt = s.now()

	return copyDraft(draft), nil
}

// SelectBudget records the chosen budget. Fund sufficiency is deliberately
// not checked here; the ledger may change between assembly and decision.
func (s *CartService) SelectBudget(ctx context.Context, scope, requester, budgetName string) (*entity.CartDraft, error) {
	budgets, err := s.budgetRepo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	found := false
	for _, b := range budgets {
		if b.Name == budgetName {
			found = true
			break
		}
	}
	if !found {
		return nil, entity.ErrBudgetNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cartKey{scope, requester}
	draft := s.liveDraft(key)
	if draft == nil {
		draft = &entity.CartDraft{
			Scope:     scope,
			Requester: requester,
			CreatedAt: s.now(),
		}
		s.drafts[key] = draft
	}

	draft.BudgetName = budgetName
	draft.UpdatedAt = s.now()

	return copyDraft(draft), nil
}

// Get returns the requester's current draft.
func (s *CartService) Get(ctx context.Context, scope, requester string) (*entity.CartDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.liveDraft(cartKey{scope, requester})
	if draft == nil {
		return nil, entity.ErrCartNotFound
	}
	return copyDraft(draft), nil
}

// Cancel discards the requester's draft.
func (s *CartService) Cancel(ctx context.Context, scope, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cartKey{scope, requester}
	if s.liveDraft(key) == nil {
		return entity.ErrCartNotFound
	}
	delete(s.drafts, key)
	return nil
}

// Submit turns the draft into a pending request and discards the draft.
// The draft is kept when submission fails so the requester can correct it.
func (s *CartService) Submit(ctx context.Context, scope, requester string) (*entity.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cartKey{scope, requester}
	draft := s.liveDraft(key)
	if draft == nil {
		return nil, entity.ErrCartNotFound
	}
	if len(draft.Items) == 0 {
		return nil, entity.ErrEmptyCart
	}
	if draft.BudgetName == "" {
		return nil, entity.ErrNoBudgetSelected
	}

	total := draft.TotalAmount()

	if s.cfg.CheckFundsAtSubmit {
		balance, err := s.budgetRepo.Balance(ctx, scope, draft.BudgetName)
		if err != nil {
			return nil, fmt.Errorf("check balance: %w", err)
		}
		if total > balance {
			return nil, fmt.Errorf("%w: %q holds %d, cart totals %d", entity.ErrInsufficientBudget, draft.BudgetName, balance, total)
		}
	}

	req := &entity.Request{
		Scope:       scope,
		Requester:   requester,
		BudgetName:  draft.BudgetName,
		TotalAmount: total,
		Status:      entity.StatusPending,
		SubmittedAt: s.now(),
	}
	for i, it := range draft.Items {
		req.Items = append(req.Items, entity.LineItem{
			Position:  i,
			Name:      it.Name,
			Link:      it.Link,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Amount:    it.Amount(),
		})
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.requestRepo.Create(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "scope", scope, "requester", requester)
		return nil, err
	}

	delete(s.drafts, key)

	s.logger.Info("Request submitted",
		"scope", scope, "requester", requester,
		"request_id", req.ID, "budget", req.BudgetName, "total", total)

	return req, nil
}

// liveDraft returns the draft for key, dropping it first if it has sat idle
// past the expiry window. Callers must hold s.mu.
func (s *CartService) liveDraft(key cartKey) *entity.CartDraft {
	draft, ok := s.drafts[key]
	if !ok {
		return nil
	}
	if draft.IdleSince(s.now()) > s.cfg.IdleExpiry {
		delete(s.drafts, key)
		return nil
	}
	return draft
}

func copyDraft(d *entity.CartDraft) *entity.CartDraft {
	out := *d
	out.Items = append([]entity.DraftItem(nil), d.Items...)
	return &out
}
