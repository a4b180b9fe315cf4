package entity

import "time"

// CartDraft is an in-progress purchase request being assembled by one
// requester within one scope. It lives in memory only; submitting it
// creates a Request and discards the draft.
type CartDraft struct {
	Scope      string      `json:"scope"`
	Requester  string      `json:"requester"`
	Items      []DraftItem `json:"items"`
	BudgetName string      `json:"budget_name,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// DraftItem is a cart line before submission.
type DraftItem struct {
	Name      string `json:"name"`
	Link      string `json:"link,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// Amount is the derived line total.
func (d DraftItem) Amount() int64 {
	return d.UnitPrice * d.Quantity
}

// TotalAmount sums all draft lines.
func (c *CartDraft) TotalAmount() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Amount()
	}
	return total
}

// IdleSince reports how long the draft has gone untouched.
func (c *CartDraft) IdleSince(now time.Time) time.Duration {
	return now.Sub(c.UpdatedAt)
}
