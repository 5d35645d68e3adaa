package bot

import (
	"context"
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashflow-bot/internal/menu"
)

type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Messenger delivers engine replies through the Telegram API.
type Messenger struct {
	api sender
}

// NewMessenger wraps a telebot bot or any compatible sender.
func NewMessenger(api sender) *Messenger {
	return &Messenger{api: api}
}

// Send posts text to chatID with the layout rendered as an inline keyboard.
func (m *Messenger) Send(_ context.Context, chatID int64, text string, layout *menu.Layout) error {
	markup, err := keyboard.Render(layout)
	if err != nil {
		return fmt.Errorf("render keyboard: %w", err)
	}

	var opts []interface{}
	if markup != nil {
		opts = append(opts, markup)
	}

	if _, err := m.api.Send(telebot.ChatID(chatID), text, opts...); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}
