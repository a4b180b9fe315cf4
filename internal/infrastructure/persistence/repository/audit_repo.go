package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
	"go.uber.org/zap"
)

// AuditRepository implements port.AuditRepository on sqlite. The table is
// append-only; no update or delete statement exists here.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one record per decided line item.
func (r *AuditRepository) Append(ctx context.Context, records []*entity.AuditRecord) error {
	query := `
		INSERT INTO audit_records (
			scope, request_id, requester, item_name, item_link,
			unit_price, quantity, amount, decision, approver,
			budget_name, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	ex := getExecutor(ctx, r.db)
	for _, rec := range records {
		result, err := ex.ExecContext(ctx, query,
			rec.Scope, rec.RequestID, rec.Requester, rec.ItemName, rec.ItemLink,
			rec.UnitPrice, rec.Quantity, rec.Amount, rec.Decision, rec.Approver,
			rec.BudgetName, rec.DecidedAt,
		)
		if err != nil {
			r.logger.Error("Failed to append audit record",
				zap.Int64("request_id", rec.RequestID), zap.Error(err))
			return fmt.Errorf("failed to append audit record: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get audit record id: %w", err)
		}
		rec.ID = id
	}

	return nil
}

// Query returns the scope's records in insertion order, optionally filtered
// by requester.
func (r *AuditRepository) Query(ctx context.Context, scope, requester string) ([]*entity.AuditRecord, error) {
	query := `
		SELECT id, scope, request_id, requester, item_name, item_link,
			unit_price, quantity, amount, decision, approver,
			budget_name, decided_at
		FROM audit_records
		WHERE scope = ?
	`
	args := []interface{}{scope}
	if requester != "" {
		query += ` AND requester = ?`
		args = append(args, requester)
	}
	query += ` ORDER BY id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query audit records", zap.String("scope", scope), zap.Error(err))
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []*entity.AuditRecord
	for rows.Next() {
		var rec entity.AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.Scope, &rec.RequestID, &rec.Requester, &rec.ItemName, &rec.ItemLink,
			&rec.UnitPrice, &rec.Quantity, &rec.Amount, &rec.Decision, &rec.Approver,
			&rec.BudgetName, &rec.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
