// Package events publishes ledger events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Proton-105/cashflow-bot/internal/domain"
)

// InvoiceRecorded is published after an entry is stored.
type InvoiceRecorded struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Category   string    `json:"category,omitempty"`
	Income     bool      `json:"income"`
	DateTime   string    `json:"date_time"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewInvoiceRecorded describes a stored invoice. Amounts are signed.
func NewInvoiceRecorded(invoice *domain.Invoice, now time.Time) InvoiceRecorded {
	event := InvoiceRecorded{
		EventID:    uuid.NewString(),
		UserID:     invoice.UserID,
		Amount:     invoice.SignedAmount().StringFixed(2),
		Income:     invoice.Income,
		DateTime:   invoice.DateTime,
		RecordedAt: now.UTC(),
	}
	if invoice.Currency != nil {
		event.Currency = invoice.Currency.Code
	}
	if invoice.Category != nil {
		event.Category = invoice.Category.Name
	}
	return event
}

// JSON encodes the event body.
func (e InvoiceRecorded) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers ledger events.
type Publisher interface {
	PublishInvoice(ctx context.Context, event InvoiceRecorded) error
	Close() error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishInvoice(context.Context, InvoiceRecorded) error { return nil }

func (Nop) Close() error { return nil }
