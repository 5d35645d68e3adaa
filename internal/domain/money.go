package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places kept for money, matching the NUMERIC(14,2) columns.
const AmountPlaces = 2

// MaxAmount is the smallest magnitude that no longer fits the ledger columns.
var MaxAmount = decimal.New(1, 12)

// ParseAmount reads user-typed money rounded to AmountPlaces. Whitespace is dropped and a comma
// is accepted as the decimal separator.
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.Join(strings.Fields(text), "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Round(AmountPlaces), nil
}

// FormatMoney renders an amount with two decimals and spaces between thousands: 10000 -> "10 000.00".
func FormatMoney(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	return sign + b.String() + "." + fracPart
}
