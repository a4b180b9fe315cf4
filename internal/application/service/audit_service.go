package service

import (
	"context"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

// AuditService reads the append-only decision log. Appends happen only
// inside ApprovalService decisions; nothing updates or deletes records.
type AuditService struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditRepository, logger Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Query returns the scope's audit records in insertion order, optionally
// narrowed to one requester.
func (s *AuditService) Query(ctx context.Context, scope, requester string) ([]*entity.AuditRecord, error) {
	return s.auditRepo.Query(ctx, scope, requester)
}
