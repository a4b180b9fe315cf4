package entity

import "time"

// Decision outcomes recorded per line item.
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// AuditRecord is one finalized line-item decision. Records are append-only;
// nothing updates or deletes them.
type AuditRecord struct {
	ID         int64     `json:"id"`
	Scope      string    `json:"scope"`
	RequestID  int64     `json:"request_id"`
	Requester  string    `json:"requester"`
	ItemName   string    `json:"item_name"`
	ItemLink   string    `json:"item_link,omitempty"`
	UnitPrice  int64     `json:"unit_price"`
	Quantity   int64     `json:"quantity"`
	Amount     int64     `json:"amount"`
	Decision   string    `json:"decision"`
	Approver   string    `json:"approver"`
	BudgetName string    `json:"budget_name"`
	DecidedAt  time.Time `json:"decided_at"`
}
