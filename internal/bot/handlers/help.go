package handlers

import telebot "gopkg.in/telebot.v3"

const helpText = `I keep track of your expenses and income.

/start opens the main menu
/cancel drops the current entry
/reg asks the administrator for access
/help shows this message`

// Help lists the available commands.
func Help(c telebot.Context) error {
	return c.Send(helpText)
}
