package domain

import (
	"strings"
	"unicode/utf8"
)

const maxCurrencyCodeLen = 3

// Currency is identified by a short upper-case code such as USD.
type Currency struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Lifecycle Lifecycle `json:"lifecycle"`
}

// NewCurrency returns an unsaved currency with a normalized code.
func NewCurrency(code string) *Currency {
	return &Currency{Code: NormalizeCurrencyCode(code)}
}

// NormalizeCurrencyCode trims and upper-cases the code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SetID changes the id of a new currency. Loaded currencies keep their id.
func (c *Currency) SetID(id int64) bool {
	if c.Lifecycle == LifecycleLoaded {
		return false
	}
	c.ID = id
	return true
}

// SetCode normalizes and stores the code unless the currency is already loaded.
func (c *Currency) SetCode(code string) bool {
	if c.Lifecycle == LifecycleLoaded {
		return false
	}
	c.Code = NormalizeCurrencyCode(code)
	return true
}

// Validate checks the code is non-empty and at most three characters long.
func (c *Currency) Validate() error {
	switch n := utf8.RuneCountInString(c.Code); {
	case n == 0:
		return ErrEmptyCode
	case n > maxCurrencyCodeLen:
		return ErrInvalidCurrencyCode
	}
	return nil
}

// IsNew reports whether the currency has not been persisted yet.
func (c *Currency) IsNew() bool {
	return c.Lifecycle == LifecycleNew
}

// MarkLoaded locks the id and code.
func (c *Currency) MarkLoaded() {
	c.Lifecycle = LifecycleLoaded
}
