// Package domain holds the ledger value objects: categories, currencies, users, invoices and reports.
package domain

import "errors"

var (
	// ErrEmptyName indicates that a category name is blank.
	ErrEmptyName = errors.New("name is empty")
	// ErrEmptyCode indicates that a currency code is blank.
	ErrEmptyCode = errors.New("currency code is empty")
	// ErrInvalidCurrencyCode indicates that a currency code is longer than three characters.
	ErrInvalidCurrencyCode = errors.New("currency code must be at most 3 characters")
	// ErrInvalidInvoice indicates that an invoice failed validation.
	ErrInvalidInvoice = errors.New("invalid invoice")
	// ErrInvalidUserData indicates that a user id could not be parsed.
	ErrInvalidUserData = errors.New("invalid user data")
)

// Lifecycle tracks whether an entity was built in memory or read from storage.
type Lifecycle int

const (
	// LifecycleNew marks an entity not yet persisted.
	LifecycleNew Lifecycle = iota
	// LifecycleLoaded marks an entity read from or written to storage. Its id is immutable.
	LifecycleLoaded
)

func (l Lifecycle) String() string {
	if l == LifecycleLoaded {
		return "loaded"
	}
	return "new"
}
