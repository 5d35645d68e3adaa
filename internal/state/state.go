package state

import (
	"time"

	"github.com/Proton-105/cashflow-bot/internal/domain"
)

// State represents a conversation state.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next user command.
	StateIdle State = "idle"
	// StateAwaitingCategory indicates that an expense needs a category.
	StateAwaitingCategory State = "awaiting_category"
	// StateAwaitingNewCategory indicates that the user is typing a new category name.
	StateAwaitingNewCategory State = "awaiting_new_category"
	// StateAwaitingCurrency indicates that an entry needs a currency.
	StateAwaitingCurrency State = "awaiting_currency"
	// StateAwaitingNewCurrency indicates that the user is typing a new currency code.
	StateAwaitingNewCurrency State = "awaiting_new_currency"
	// StateAwaitingAmount indicates that the user is typing the amount.
	StateAwaitingAmount State = "awaiting_amount"
	// StateAwaitingCommit indicates that the entry waits for confirmation.
	StateAwaitingCommit State = "awaiting_commit"
	// StateAwaitingReportType indicates that the user is choosing a report.
	StateAwaitingReportType State = "awaiting_report_type"
	// StateAwaitingGrouping indicates that an expense report asks whether to group by category.
	StateAwaitingGrouping State = "awaiting_grouping"
	// StateAwaitingDate indicates that a report waits for its date.
	StateAwaitingDate State = "awaiting_date"
)

// Session is the per-user conversation entry: the user, the current state and the pending items.
type Session struct {
	UserID    int64           `json:"user_id"`
	User      *domain.User    `json:"user"`
	State     State           `json:"state"`
	Invoice   *domain.Invoice `json:"invoice,omitempty"`
	Report    *domain.Report  `json:"report,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}
