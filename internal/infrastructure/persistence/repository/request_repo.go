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

// RequestRepository implements port.RequestRepository on sqlite.
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a request and its line items.
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (
			scope, requester, budget_name, total_amount, status,
			approved_amount, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	ex := getExecutor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query,
		req.Scope,
		req.Requester,
		req.BudgetName,
		req.TotalAmount,
		req.Status,
		req.ApprovedAmount,
		req.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id

	itemQuery := `
		INSERT INTO request_items (
			request_id, position, name, link, unit_price, quantity, amount, approved
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`
	for i := range req.Items {
		item := &req.Items[i]
		item.RequestID = id
		res, err := ex.ExecContext(ctx, itemQuery,
			id, item.Position, item.Name, item.Link,
			item.UnitPrice, item.Quantity, item.Amount,
		)
		if err != nil {
			r.logger.Error("Failed to create line item",
				zap.Int64("request_id", id), zap.Int("position", item.Position), zap.Error(err))
			return fmt.Errorf("failed to create line item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get line item id: %w", err)
		}
		item.ID = itemID
	}

	return nil
}

// GetByID retrieves a request with its line items.
func (r *RequestRepository) GetByID(ctx context.Context, scope string, id int64) (*entity.Request, error) {
	query := `
		SELECT id, scope, requester, budget_name, total_amount, status,
			approved_amount, approver, submitted_at, decided_at
		FROM requests
		WHERE scope = ? AND id = ?
	`

	req, err := r.scanRequest(getExecutor(ctx, r.db).QueryRowContext(ctx, query, scope, id))
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, nil
	}

	if err := r.loadItems(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListByRequester retrieves a requester's requests, newest first.
func (r *RequestRepository) ListByRequester(ctx context.Context, scope, requester string) ([]*entity.Request, error) {
	query := `
		SELECT id, scope, requester, budget_name, total_amount, status,
			approved_amount, approver, submitted_at, decided_at
		FROM requests
		WHERE scope = ? AND requester = ?
		ORDER BY submitted_at DESC, id DESC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, scope, requester)
	if err != nil {
		r.logger.Error("Failed to list requests",
			zap.String("scope", scope), zap.String("requester", requester), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := r.scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, req := range requests {
		if err := r.loadItems(ctx, req); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// Decide finalizes a pending request. The status flip is conditional on the
// stored status still being fromStatus; losing that race reports
// entity.ErrAlreadyDecided.
func (r *RequestRepository) Decide(ctx context.Context, req *entity.Request, fromStatus string) error {
	query := `
		UPDATE requests
		SET status = ?, approved_amount = ?, approver = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`

	ex := getExecutor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query,
		req.Status, req.ApprovedAmount, req.Approver, req.DecidedAt,
		req.ID, fromStatus,
	)
	if err != nil {
		r.logger.Error("Failed to decide request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to decide request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrAlreadyDecided
	}

	itemQuery := `UPDATE request_items SET approved = ? WHERE request_id = ? AND position = ?`
	for _, item := range req.Items {
		if _, err := ex.ExecContext(ctx, itemQuery, item.Approved, req.ID, item.Position); err != nil {
			r.logger.Error("Failed to flag line item",
				zap.Int64("request_id", req.ID), zap.Int("position", item.Position), zap.Error(err))
			return fmt.Errorf("failed to flag line item: %w", err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *RequestRepository) scanRequest(row *sql.Row) (*entity.Request, error) {
	req, err := scanRequestFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (r *RequestRepository) scanRequestRow(rows *sql.Rows) (*entity.Request, error) {
	req, err := scanRequestFields(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}
	return req, nil
}

func scanRequestFields(s rowScanner) (*entity.Request, error) {
	var req entity.Request
	var approver sql.NullString
	var decidedAt sql.NullTime

	err := s.Scan(
		&req.ID,
		&req.Scope,
		&req.Requester,
		&req.BudgetName,
		&req.TotalAmount,
		&req.Status,
		&req.ApprovedAmount,
		&approver,
		&req.SubmittedAt,
		&decidedAt,
	)
	if err != nil {
		return nil, err
	}

	if approver.Valid {
		req.Approver = approver.String
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	return &req, nil
}

func (r *RequestRepository) loadItems(ctx context.Context, req *entity.Request) error {
	query := `
		SELECT id, request_id, position, name, link, unit_price, quantity, amount, approved
		FROM request_items
		WHERE request_id = ?
		ORDER BY position
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, req.ID)
	if err != nil {
		r.logger.Error("Failed to load line items", zap.Int64("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to load line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.LineItem
		if err := rows.Scan(
			&item.ID, &item.RequestID, &item.Position, &item.Name, &item.Link,
			&item.UnitPrice, &item.Quantity, &item.Amount, &item.Approved,
		); err != nil {
			return fmt.Errorf("failed to scan line item: %w", err)
		}
		req.Items = append(req.Items, item)
	}

	return rows.Err()
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
