// Package keyboard renders menu layouts as Telegram reply markup.
package keyboard

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/menu"
)

// InlineKeyboardBuilder accumulates rows of menu buttons before rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]menu.Button
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{}
}

// AddRow appends a row of buttons. Empty rows are skipped.
func (b *InlineKeyboardBuilder) AddRow(buttons ...menu.Button) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]menu.Button, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Build encodes every button and fails when callback data exceeds the Telegram limit.
func (b *InlineKeyboardBuilder) Build() (*telebot.ReplyMarkup, error) {
	inline := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inline[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			data, err := btn.CallbackData()
			if err != nil {
				return nil, fmt.Errorf("button %q: %w", btn.Text, err)
			}
			inline[i][j] = telebot.InlineButton{Text: btn.Text, Data: data}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inline}, nil
}

// Render turns a layout into inline markup. A nil layout yields nil markup.
func Render(layout *menu.Layout) (*telebot.ReplyMarkup, error) {
	if layout == nil {
		return nil, nil
	}

	builder := NewInlineKeyboard()
	for _, row := range layout.Rows {
		builder.AddRow(row...)
	}
	return builder.Build()
}
