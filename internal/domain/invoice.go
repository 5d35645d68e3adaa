package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateTimeLayout is the storage representation of ledger timestamps.
const DateTimeLayout = "2006-01-02 15:04:05"

// Invoice is a single income or expense entry.
type Invoice struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency *Currency       `json:"currency,omitempty"`
	Category *Category       `json:"category,omitempty"`
	DateTime string          `json:"date_time,omitempty"`
	Income   bool            `json:"income"`
	Expense  bool            `json:"expense"`
	UserID   int64           `json:"user_id"`
}

// NewExpense returns an expense entry stamped with now.
func NewExpense(now time.Time) *Invoice {
	inv := &Invoice{Expense: true}
	inv.SetTime(now)
	return inv
}

// NewIncome returns an income entry stamped with now.
func NewIncome(now time.Time) *Invoice {
	inv := &Invoice{Income: true}
	inv.SetTime(now)
	return inv
}

// SetAmountText parses user input. Text that is not a number, or rounds to zero cents, sets the amount to zero.
func (i *Invoice) SetAmountText(text string) {
	amount, err := ParseAmount(text)
	if err != nil {
		amount = decimal.Zero
	}
	i.Amount = amount
}

// SetTime stamps the entry with t.
func (i *Invoice) SetTime(t time.Time) {
	i.DateTime = t.Format(DateTimeLayout)
}

// SetEpoch stamps the entry with a Unix timestamp in seconds.
func (i *Invoice) SetEpoch(seconds int64) {
	i.SetTime(time.Unix(seconds, 0))
}

// SetDateTimeString accepts an already formatted timestamp. A malformed value clears the timestamp.
func (i *Invoice) SetDateTimeString(value string) bool {
	if _, err := time.Parse(DateTimeLayout, value); err != nil {
		i.DateTime = ""
		return false
	}
	i.DateTime = value
	return true
}

// Valid reports whether the entry can be saved.
func (i *Invoice) Valid() bool {
	return i.Validate() == nil
}

// Validate explains why the entry cannot be saved.
func (i *Invoice) Validate() error {
	switch {
	case i.Income == i.Expense:
		return fmt.Errorf("%w: exactly one of income or expense must be set", ErrInvalidInvoice)
	case i.Amount.Round(AmountPlaces).IsZero():
		return fmt.Errorf("%w: amount is zero", ErrInvalidInvoice)
	case i.Amount.Abs().GreaterThanOrEqual(MaxAmount):
		return fmt.Errorf("%w: amount is too large", ErrInvalidInvoice)
	case i.DateTime == "":
		return fmt.Errorf("%w: date is missing", ErrInvalidInvoice)
	case i.Currency == nil:
		return fmt.Errorf("%w: currency is missing", ErrInvalidInvoice)
	}
	return nil
}

// SignedAmount is negative for expenses and positive for income.
func (i *Invoice) SignedAmount() decimal.Decimal {
	if i.Expense {
		return i.Amount.Abs().Neg()
	}
	return i.Amount.Abs()
}

// String renders the confirmation text shown before commit.
func (i *Invoice) String() string {
	var b strings.Builder

	if i.Expense {
		b.WriteString("Expense")
	} else {
		b.WriteString("Income")
	}

	if i.Category != nil {
		fmt.Fprintf(&b, "\nCategory: %s", i.Category.Name)
	}
	if i.Currency != nil {
		fmt.Fprintf(&b, "\nCurrency: %s", i.Currency.Code)
	}
	fmt.Fprintf(&b, "\nAmount: %s", FormatMoney(i.SignedAmount()))
	fmt.Fprintf(&b, "\nDate: %s", i.DateTime)

	return b.String()
}
