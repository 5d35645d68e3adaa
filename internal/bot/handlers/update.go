// Package handlers adapts telebot updates to the conversation engine.
package handlers

import (
	"context"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/conversation"
	"github.com/Proton-105/cashflow-bot/internal/domain"
	"github.com/Proton-105/cashflow-bot/internal/menu"
	"github.com/Proton-105/cashflow-bot/internal/middleware"
)

// Engine handles one normalized update.
type Engine interface {
	Handle(ctx context.Context, upd conversation.Update) error
}

// ToUpdate normalizes a telebot update. It reports false for updates without a sender
// or with unreadable callback data.
func ToUpdate(c telebot.Context) (conversation.Update, bool) {
	sender := c.Sender()
	if sender == nil {
		return conversation.Update{}, false
	}

	upd := conversation.Update{
		ChatID: sender.ID,
		User:   domain.NewUser(sender.ID, senderName(sender)),
	}
	if chat := c.Chat(); chat != nil {
		upd.ChatID = chat.ID
	}

	if cb := c.Callback(); cb != nil {
		action, payload, err := menu.DecodeCallback(cb.Data)
		if err != nil {
			return conversation.Update{}, false
		}
		upd.Action, upd.Payload = action, payload
		return upd, true
	}

	text := strings.TrimSpace(c.Text())
	if command, ok := strings.CutPrefix(text, "/"); ok {
		command, _, _ = strings.Cut(command, " ")
		command, _, _ = strings.Cut(command, "@")
		upd.Command = strings.ToLower(command)
		return upd, true
	}

	upd.Text = text
	return upd, true
}

// Conversation forwards every update to the engine.
func Conversation(engine Engine) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		upd, ok := ToUpdate(c)
		if !ok {
			return nil
		}
		return engine.Handle(middleware.Context(c), upd)
	}
}

func senderName(u *telebot.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}
