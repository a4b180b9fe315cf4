package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
	"github.com/ttakeda/budgetbot/internal/domain/workflow"
)

// DecisionKind selects how a decision partitions the request's line items.
type DecisionKind string

const (
	DecideApproveAll DecisionKind = "APPROVE_ALL"
	DecideRejectAll  DecisionKind = "REJECT_ALL"
	DecidePartial    DecisionKind = "PARTIAL"
)

// DecisionInput carries one decision attempt on a pending request.
type DecisionInput struct {
	Kind DecisionKind
	// ApprovedPositions lists the item positions approved by a partial
	// decision. An empty set is equivalent to rejecting everything.
	ApprovedPositions []int
	Approver          string
	ApproverRoles     []string
}

// ApprovalConfig controls the ledger policy applied at decision time.
type ApprovalConfig struct {
	// AllowOverdraft permits debits that take a balance below zero.
	AllowOverdraft bool
}

// ApprovalService owns the request decision transition: access check,
// budget debit, status flip, and audit append happen atomically, and a
// request is decided at most once.
type ApprovalService struct {
	requestRepo port.RequestRepository
	budgetRepo  port.BudgetRepository
	auditRepo   port.AuditRepository
	access      *AccessService
	txManager   port.TransactionManager
	lifecycle   workflow.StateMachineBuilder
	cfg         ApprovalConfig
	now         func() time.Time
	logger      Logger

	// per-scope locks serialize concurrent decisions so the second caller
	// of a race observes AlreadyDecided instead of a partial state
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	requestRepo port.RequestRepository,
	budgetRepo port.BudgetRepository,
	auditRepo port.AuditRepository,
	access *AccessService,
	txManager port.TransactionManager,
	cfg ApprovalConfig,
	logger Logger,
) *ApprovalService {
	return &ApprovalService{
		requestRepo: requestRepo,
		budgetRepo:  budgetRepo,
		auditRepo:   auditRepo,
		access:      access,
		txManager:   txManager,
		lifecycle:   workflow.NewRequestLifecycle(),
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

// GetRequest returns one request with its line items.
func (s *ApprovalService) GetRequest(ctx context.Context, scope string, id int64) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, entity.ErrRequestNotFound
	}
	return req, nil
}

// ListRequests returns a requester's requests within a scope.
func (s *ApprovalService) ListRequests(ctx context.Context, scope, requester string) ([]*entity.Request, error) {
	return s.requestRepo.ListByRequester(ctx, scope, requester)
}

// Decide applies exactly one decision to a pending request. The whole
// transition is all-or-nothing: an authorization failure, a stale status,
// or an insufficient balance leaves the ledger, the request, and the audit
// log untouched.
func (s *ApprovalService) Decide(ctx context.Context, scope string, requestID int64, in DecisionInput) (*entity.Request, error) {
	lock := s.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	req, err := s.requestRepo.GetByID(ctx, scope, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, entity.ErrRequestNotFound
	}
	if req.Decided() {
		return nil, entity.ErrAlreadyDecided
	}

	ok, err := s.access.CanApprove(ctx, scope, in.ApproverRoles)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.ErrForbidden
	}

	approved, err := approvedSet(req, in)
	if err != nil {
		return nil, err
	}

	var approvedAmount int64
	for i := range req.Items {
		if approved[req.Items[i].Position] {
			approvedAmount += req.Items[i].Amount
		}
	}

	trigger := workflow.TriggerReject
	if approvedAmount > 0 {
		trigger = workflow.TriggerApprove
	}

	machine := s.lifecycle.Build(workflow.State(req.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			return nil, entity.ErrAlreadyDecided
		}
		return nil, err
	}

	decidedAt := s.now()
	req.Status = machine.State().String()
	req.ApprovedAmount = approvedAmount
	req.Approver = in.Approver
	req.DecidedAt = &decidedAt
	for i := range req.Items {
		req.Items[i].Approved = approved[req.Items[i].Position]
	}

	records := make([]*entity.AuditRecord, 0, len(req.Items))
	for _, item := range req.Items {
		decision := entity.DecisionRejected
		if item.Approved {
			decision = entity.DecisionApproved
		}
		records = append(records, &entity.AuditRecord{
			Scope:      scope,
			RequestID:  req.ID,
			Requester:  req.Requester,
			ItemName:   item.Name,
			ItemLink:   item.Link,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			Amount:     item.Amount,
			Decision:   decision,
			Approver:   in.Approver,
			BudgetName: req.BudgetName,
			DecidedAt:  decidedAt,
		})
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if approvedAmount > 0 {
			if err := s.budgetRepo.Debit(txCtx, scope, req.BudgetName, approvedAmount, !s.cfg.AllowOverdraft); err != nil {
				return err
			}
		}
		if err := s.requestRepo.Decide(txCtx, req, entity.StatusPending); err != nil {
			return err
		}
		return s.auditRepo.Append(txCtx, records)
	})
	if err != nil {
		if errors.Is(err, entity.ErrInsufficientBudget) || errors.Is(err, entity.ErrAlreadyDecided) {
			return nil, err
		}
		s.logger.Error("Failed to finalize decision", "error", err, "scope", scope, "request_id", requestID)
		return nil, err
	}

	s.logger.Info("Request decided",
		"scope", scope, "request_id", req.ID,
		"status", req.Status, "approved_amount", approvedAmount,
		"approver", in.Approver)

	return req, nil
}

// approvedSet maps the decision input to the set of approved item positions.
func approvedSet(req *entity.Request, in DecisionInput) (map[int]bool, error) {
	approved := make(map[int]bool, len(req.Items))

	switch in.Kind {
	case DecideApproveAll:
		for _, item := range req.Items {
			approved[item.Position] = true
		}
	case DecideRejectAll:
		// nothing approved
	case DecidePartial:
		valid := make(map[int]bool, len(req.Items))
		for _, item := range req.Items {
			valid[item.Position] = true
		}
		for _, pos := range in.ApprovedPositions {
			if !valid[pos] {
				return nil, fmt.Errorf("%w: no item at position %d", entity.ErrInvalidAmount, pos)
			}
			approved[pos] = true
		}
	default:
		return nil, fmt.Errorf("unknown decision kind %q", in.Kind)
	}

	return approved, nil
}

func (s *ApprovalService) scopeLock(scope string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[scope] = lock
	}
	return lock
}
