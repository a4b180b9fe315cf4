package entity

import "errors"

var (
	// ErrInvalidAmount is returned when a unit price or quantity is out of range
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrEmptyCart is returned when a draft with no items is submitted
	ErrEmptyCart = errors.New("cart has no items")

	// ErrNoBudgetSelected is returned when a draft is submitted without a budget
	ErrNoBudgetSelected = errors.New("no budget selected")

	// ErrInsufficientBudget is returned when a debit would drive a balance below zero
	ErrInsufficientBudget = errors.New("insufficient budget")

	// ErrAlreadyDecided is returned when a decision is attempted on a non-pending request
	ErrAlreadyDecided = errors.New("request already decided")

	// ErrForbidden is returned when the acting principal may not approve in the scope
	ErrForbidden = errors.New("not authorized to decide requests in this scope")

	// ErrScopeNotConfigured is returned when a scope has no approver roles set up
	ErrScopeNotConfigured = errors.New("scope has no approver roles configured")

	// ErrCartNotFound is returned when no draft exists for the requester
	ErrCartNotFound = errors.New("cart not found")

	// ErrRequestNotFound is returned when a request identifier resolves to nothing
	ErrRequestNotFound = errors.New("request not found")

	// ErrBudgetNotFound is returned when a named budget does not exist in the scope
	ErrBudgetNotFound = errors.New("budget not found")
)
