package entity

import "time"

// Budget is a named balance within a scope. Balances are whole currency
// units; the ledger enforces non-negative balances unless overdraft mode
// is configured.
type Budget struct {
	Scope     string    `json:"scope"`
	Name      string    `json:"name"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}
