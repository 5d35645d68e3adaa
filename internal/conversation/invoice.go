package conversation

import (
	"context"
	"errors"
	"strconv"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/events"
	"github.com/Proton-105/cashflow-bot/internal/ledger"
	"github.com/Proton-105/cashflow-bot/internal/menu"
	"github.com/Proton-105/cashflow-bot/internal/state"
)

func (e *Engine) startExpense(ctx context.Context, upd Update) error {
	if err := e.begin(ctx, upd.User); err != nil {
		return err
	}
	if err := e.saveInvoice(ctx, upd.User.ID, domain.NewExpense(e.now())); err != nil {
		return err
	}

	keyboard, err := e.next(menu.KeyboardStart, menu.ActionAddExpenses, "")
	if err != nil {
		return err
	}
	if err := e.moveTo(ctx, upd.User.ID, stateOf(keyboard)); err != nil {
		return err
	}
	return e.sendCategories(ctx, upd.ChatID, textChooseCategory)
}

func (e *Engine) startIncome(ctx context.Context, upd Update) error {
	if err := e.begin(ctx, upd.User); err != nil {
		return err
	}
	if err := e.saveInvoice(ctx, upd.User.ID, domain.NewIncome(e.now())); err != nil {
		return err
	}

	keyboard, err := e.next(menu.KeyboardStart, menu.ActionAddIncome, "")
	if err != nil {
		return err
	}
	if err := e.moveTo(ctx, upd.User.ID, stateOf(keyboard)); err != nil {
		return err
	}
	return e.sendCurrencies(ctx, upd.ChatID, textChooseCurrency)
}

func (e *Engine) selectCategory(ctx context.Context, upd Update) error {
	id, err := strconv.ParseInt(upd.Payload, 10, 64)
	if err != nil {
		return apperrors.NewValidationError("unknown category")
	}

	category, err := e.ledger.LoadCategory(ctx, id)
	if err != nil {
		if ledger.IsNotFound(err) {
			return e.sendCategories(ctx, upd.ChatID, "Unknown category. "+textChooseCategory)
		}
		return apperrors.NewDatabaseError(err)
	}

	invoice, err := e.invoice(ctx, upd.User.ID)
	if err != nil {
		return err
	}
	invoice.Category = category
	if err := e.saveInvoice(ctx, upd.User.ID, invoice); err != nil {
		return err
	}

	if err := e.moveTo(ctx, upd.User.ID, state.StateAwaitingCurrency); err != nil {
		return err
	}
	return e.sendCurrencies(ctx, upd.ChatID, textChooseCurrency)
}

func (e *Engine) askCategoryName(ctx context.Context, upd Update) error {
	if err := e.moveTo(ctx, upd.User.ID, state.StateAwaitingNewCategory); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, textNewCategory, nil)
}

func (e *Engine) createCategory(ctx context.Context, upd Update) error {
	category := domain.NewCategory(upd.Text)
	if err := category.Validate(); err != nil {
		return e.send(ctx, upd.ChatID, retryPrompt(err, textNewCategory), nil)
	}

	if err := e.ledger.SaveCategory(ctx, category); err != nil {
		return apperrors.NewDatabaseError(err)
	}

	if err := e.moveTo(ctx, upd.User.ID, state.StateAwaitingCategory); err != nil {
		return err
	}
	return e.sendCategories(ctx, upd.ChatID, textChooseCategory)
}

func (e *Engine) selectCurrency(ctx context.Context, upd Update) error {
	currency, err := e.ledger.LoadCurrencyByCode(ctx, upd.Payload)
	if err != nil {
		if ledger.IsNotFound(err) {
			return e.sendCurrencies(ctx, upd.ChatID, "Unknown currency. "+textChooseCurrency)
		}
		return apperrors.NewDatabaseError(err)
	}

	invoice, err := e.invoice(ctx, upd.User.ID)
	if err != nil {
		return err
	}
	invoice.Currency = currency
	if err := e.saveInvoice(ctx, upd.User.ID, invoice); err != nil {
		return err
	}

	if err := e.moveTo(ctx, upd.User.ID, state.StateAwaitingAmount); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, textEnterAmount, nil)
}

func (e *Engine) askCurrencyCode(ctx context.Context, upd Update) error {
	if err := e.moveTo(ctx, upd.User.ID, state.StateAwaitingNewCurrency); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, textNewCurrency, nil)
}

func (e *Engine) createCurrency(ctx context.Context, upd Update) error {
	currency := domain.NewCurrency(upd.Text)
	if err := currency.Validate(); err != nil {
		return e.send(ctx, upd.ChatID, retryPrompt(err, textNewCurrency), nil)
	}

	prompt := textChooseCurrency
	_, err := e.ledger.LoadCurrencyByCode(ctx, currency.Code)
	switch {
	case err == nil:
		prompt = textCurrencyExists + " " + textChooseCurrency
	case ledger.IsNotFound(err):
		if err := e.ledger.SaveCurrency(ctx, currency); err != nil {
			return apperrors.NewDatabaseError(err)
		}
	default:
		return apperrors.NewDatabaseError(err)
	}

	if err := e.moveTo(ctx, upd.User.ID, state.StateAwaitingCurrency); err != nil {
		return err
	}
	return e.sendCurrencies(ctx, upd.ChatID, prompt)
}

// setAmount accepts the typed amount. Unreadable text becomes zero and is rejected on commit.
func (e *Engine) setAmount(ctx context.Context, upd Update) error {
	invoice, err := e.invoice(ctx, upd.User.ID)
	if err != nil {
		return err
	}
	invoice.SetAmountText(upd.Text)
	if err := e.saveInvoice(ctx, upd.User.ID, invoice); err != nil {
		return err
	}

	if err := e.moveTo(ctx, upd.User.ID, state.StateAwaitingCommit); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, invoice.String()+"\n\n"+textConfirm, e.graph.Layout(menu.KeyboardCommit))
}

func (e *Engine) commit(ctx context.Context, upd Update) error {
	invoice, err := e.invoice(ctx, upd.User.ID)
	if err != nil {
		return err
	}

	if err := e.ledger.SaveInvoice(ctx, invoice, upd.User); err != nil {
		if errors.Is(err, domain.ErrInvalidInvoice) || errors.Is(err, domain.ErrInvalidUserData) {
			return e.send(ctx, upd.ChatID, retryPrompt(err, textEnterAmount), e.graph.Layout(menu.KeyboardCommit))
		}
		return apperrors.NewDatabaseError(err)
	}

	kind := "expense"
	if invoice.Income {
		kind = "income"
	}
	e.recorder.InvoiceRecorded(kind)

	if err := e.publisher.PublishInvoice(ctx, events.NewInvoiceRecorded(invoice, e.now())); err != nil {
		e.log.WarnContext(ctx, "invoice event not published", "user_id", upd.User.ID, "error", err)
	}

	if err := e.clear(ctx, upd.User.ID); err != nil {
		return err
	}
	return e.sendStart(ctx, upd.ChatID, textRecorded)
}
