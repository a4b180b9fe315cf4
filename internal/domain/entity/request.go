package entity

import "time"

// Request statuses. Approved and rejected are terminal.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Request is a submitted purchase request awaiting or carrying a decision.
type Request struct {
	ID             int64      `json:"id"`
	Scope          string     `json:"scope"`
	Requester      string     `json:"requester"`
	BudgetName     string     `json:"budget_name"`
	Items          []LineItem `json:"items"`
	TotalAmount    int64      `json:"total_amount"`
	Status         string     `json:"status"`
	ApprovedAmount int64      `json:"approved_amount"`
	Approver       string     `json:"approver,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
}

// LineItem is a single purchase line within a request. Once the request is
// submitted only the Approved flag changes, and only during the decision.
type LineItem struct {
	ID        int64  `json:"id"`
	RequestID int64  `json:"request_id"`
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Link      string `json:"link,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Amount    int64  `json:"amount"`
	Approved  bool   `json:"approved"`
}

// Decided reports whether the request has reached a terminal status.
func (r *Request) Decided() bool {
	return r.Status != StatusPending
}
