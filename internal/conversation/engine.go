// Package conversation drives the button and text dialogue that records entries and runs reports.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/events"
	"github.com/Proton-105/cashflow-bot/internal/menu"
	"github.com/Proton-105/cashflow-bot/internal/state"
	"github.com/Proton-105/cashflow-bot/internal/table"
	"github.com/Proton-105/cashflow-bot/internal/user"
)

// Commands understood by the engine, without the leading slash.
const (
	CommandStart    = "start"
	CommandCancel   = "cancel"
	CommandRegister = "reg"
)

const (
	anyState   state.State = "*"
	actionText             = "text"
)

// Update is one inbound event: a pressed button, a typed text or a command.
type Update struct {
	ChatID  int64
	User    *domain.User
	Command string
	Action  string
	Payload string
	Text    string
}

// Messenger sends a message with an optional keyboard.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, layout *menu.Layout) error
}

// Ledger persists entries and runs reports.
type Ledger interface {
	SaveCategory(ctx context.Context, category *domain.Category) error
	LoadCategory(ctx context.Context, id int64) (*domain.Category, error)
	Categories(ctx context.Context) ([]*domain.Category, error)
	SaveCurrency(ctx context.Context, currency *domain.Currency) error
	LoadCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
	Currencies(ctx context.Context) ([]*domain.Currency, error)
	SaveInvoice(ctx context.Context, invoice *domain.Invoice, user *domain.User) error
	FetchReport(ctx context.Context, report *domain.Report) (*table.TreeTable, error)
}

// Registry decides who may talk to the bot.
type Registry interface {
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	IsAdministrator(ctx context.Context, userID int64) (bool, error)
	RequestAccess(ctx context.Context, candidate *domain.User) (user.RequestStatus, *domain.User, error)
	Resolve(ctx context.Context, candidateID int64, approve bool) (*domain.User, error)
}

// Publisher announces stored entries.
type Publisher interface {
	PublishInvoice(ctx context.Context, event events.InvoiceRecorded) error
}

// Recorder counts finished dialogues.
type Recorder interface {
	InvoiceRecorded(kind string)
	ReportGenerated(kind string)
}

type nopRecorder struct{}

func (nopRecorder) InvoiceRecorded(string) {}
func (nopRecorder) ReportGenerated(string) {}

// Options holds the optional collaborators of an Engine.
type Options struct {
	Graph     *menu.Graph
	Locker    state.Locker
	Publisher Publisher
	Recorder  Recorder
	Now       func() time.Time
}

type handlerKey struct {
	state  state.State
	action string
}

type handlerFunc func(ctx context.Context, upd Update) error

// Engine is the conversation state machine. Handlers are looked up by (state, action).
type Engine struct {
	stack     *state.Stack
	ledger    Ledger
	registry  Registry
	messenger Messenger
	graph     *menu.Graph
	locker    state.Locker
	publisher Publisher
	recorder  Recorder
	now       func() time.Time
	log       *slog.Logger

	handlers map[handlerKey]handlerFunc
	commands map[string]string
}

// NewEngine wires the dispatch table.
func NewEngine(stack *state.Stack, ledger Ledger, registry Registry, messenger Messenger, log *slog.Logger, opts Options) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if opts.Graph == nil {
		opts.Graph = menu.DefaultGraph()
	}
	if opts.Locker == nil {
		opts.Locker = state.NewLocalLocker()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		stack:     stack,
		ledger:    ledger,
		registry:  registry,
		messenger: messenger,
		graph:     opts.Graph,
		locker:    opts.Locker,
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		now:       opts.Now,
		log:       log,
	}

	e.handlers = map[handlerKey]handlerFunc{
		{anyState, menu.ActionAddExpenses}: e.startExpense,
		{anyState, menu.ActionAddIncome}:   e.startIncome,
		{anyState, menu.ActionReports}:     e.startReport,
		{anyState, menu.ActionCancel}:      e.cancel,
		{anyState, CommandStart}:           e.restart,

		{state.StateAwaitingCategory, menu.ActionCategory}:    e.selectCategory,
		{state.StateAwaitingCategory, menu.ActionNewCategory}: e.askCategoryName,
		{state.StateAwaitingNewCategory, actionText}:          e.createCategory,

		{state.StateAwaitingCurrency, menu.ActionCurrency}:    e.selectCurrency,
		{state.StateAwaitingCurrency, menu.ActionNewCurrency}: e.askCurrencyCode,
		{state.StateAwaitingNewCurrency, actionText}:          e.createCurrency,

		{state.StateAwaitingAmount, actionText}:        e.setAmount,
		{state.StateAwaitingCommit, actionText}:        e.setAmount,
		{state.StateAwaitingCommit, menu.ActionCommit}: e.commit,

		{state.StateAwaitingReportType, menu.ActionReport}: e.selectReport,
		{state.StateAwaitingGrouping, menu.ActionGroup}:    e.selectGrouping,
		{state.StateAwaitingDate, menu.ActionToday}:        e.reportToday,
		{state.StateAwaitingDate, actionText}:              e.reportForDate,
	}

	e.commands = map[string]string{
		CommandStart:  CommandStart,
		CommandCancel: menu.ActionCancel,
	}

	return e
}

// Handle processes one update to completion. Updates of the same user are serialized.
func (e *Engine) Handle(ctx context.Context, upd Update) error {
	if upd.User == nil {
		return apperrors.NewValidationError("update without sender")
	}
	if upd.ChatID == 0 {
		upd.ChatID = upd.User.ID
	}
	upd.Command = strings.ToLower(upd.Command)

	if upd.Command == CommandRegister {
		return e.register(ctx, upd)
	}
	if upd.Action == menu.ActionNewUser {
		return e.resolveRegistration(ctx, upd)
	}

	registered, err := e.registry.IsRegistered(ctx, upd.User.ID)
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}
	if !registered {
		return e.send(ctx, upd.ChatID, textNoAccess, nil)
	}

	unlock, err := e.locker.Lock(ctx, upd.User.ID)
	if err != nil {
		if errors.Is(err, state.ErrStateLocked) {
			return apperrors.NewBusyError(err)
		}
		return apperrors.NewSessionError(err)
	}
	defer unlock()

	if err := e.stack.AddUser(ctx, upd.User); err != nil {
		return apperrors.NewSessionError(err)
	}

	current, err := e.stack.State(ctx, upd.User.ID)
	if err != nil {
		return apperrors.NewSessionError(err)
	}

	action := e.actionOf(upd)
	handler, ok := e.handlers[handlerKey{current, action}]
	if !ok {
		handler, ok = e.handlers[handlerKey{anyState, action}]
	}
	if !ok {
		// Stale buttons and unexpected text bring the user back to the start menu.
		e.log.DebugContext(ctx, "no handler",
			slog.Int64("user_id", upd.User.ID),
			slog.String("state", string(current)),
			slog.String("action", action),
		)
		return e.restart(ctx, upd)
	}

	return handler(ctx, upd)
}

func (e *Engine) actionOf(upd Update) string {
	switch {
	case upd.Action != "":
		return upd.Action
	case upd.Command != "":
		if action, ok := e.commands[upd.Command]; ok {
			return action
		}
		return "/" + upd.Command
	default:
		return actionText
	}
}

func (e *Engine) restart(ctx context.Context, upd Update) error {
	if err := e.clear(ctx, upd.User.ID); err != nil {
		return err
	}
	return e.sendStart(ctx, upd.ChatID, textStart)
}

func (e *Engine) cancel(ctx context.Context, upd Update) error {
	if err := e.clear(ctx, upd.User.ID); err != nil {
		return err
	}
	return e.sendStart(ctx, upd.ChatID, textCancelled)
}

// begin forgets the pending items and tracks the user again in the idle state.
func (e *Engine) begin(ctx context.Context, u *domain.User) error {
	if err := e.clear(ctx, u.ID); err != nil {
		return err
	}
	if err := e.stack.AddUser(ctx, u); err != nil {
		return apperrors.NewSessionError(err)
	}
	return nil
}

func (e *Engine) clear(ctx context.Context, userID int64) error {
	if err := e.stack.ClearByUser(ctx, userID); err != nil {
		return apperrors.NewSessionError(err)
	}
	return nil
}

func (e *Engine) moveTo(ctx context.Context, userID int64, next state.State) error {
	if err := e.stack.TransitionTo(ctx, userID, next); err != nil {
		if errors.Is(err, state.ErrInvalidTransition) {
			return apperrors.NewStateError(err.Error())
		}
		return apperrors.NewSessionError(err)
	}
	return nil
}

// stateOf maps the keyboard shown to the user onto the state waiting for its buttons.
func stateOf(keyboard string) state.State {
	switch keyboard {
	case menu.KeyboardCategories:
		return state.StateAwaitingCategory
	case menu.KeyboardCurrencies:
		return state.StateAwaitingCurrency
	case menu.KeyboardCommit:
		return state.StateAwaitingCommit
	case menu.KeyboardReports:
		return state.StateAwaitingReportType
	case menu.KeyboardGrouping:
		return state.StateAwaitingGrouping
	case menu.KeyboardDate:
		return state.StateAwaitingDate
	default:
		return state.StateIdle
	}
}

// next follows the keyboard graph from a pressed button.
func (e *Engine) next(from, action, payload string) (string, error) {
	keyboard, ok := e.graph.Next(from, action, payload)
	if !ok {
		return "", apperrors.NewStateError(fmt.Sprintf("button %s:%s is not on keyboard %s", action, payload, from))
	}
	return keyboard, nil
}

func (e *Engine) send(ctx context.Context, chatID int64, text string, layout *menu.Layout) error {
	if err := e.messenger.Send(ctx, chatID, text, layout); err != nil {
		return apperrors.NewExternalAPIError("messenger", err)
	}
	return nil
}

func (e *Engine) sendStart(ctx context.Context, chatID int64, text string) error {
	return e.send(ctx, chatID, text, e.graph.Layout(menu.KeyboardStart))
}

func (e *Engine) sendCategories(ctx context.Context, chatID int64, text string) error {
	categories, err := e.ledger.Categories(ctx)
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}

	buttons := make([]menu.Button, 0, len(categories))
	for _, c := range categories {
		buttons = append(buttons, menu.Button{Text: c.Name, Payload: fmt.Sprint(c.ID)})
	}
	return e.send(ctx, chatID, text, e.graph.Layout(menu.KeyboardCategories, buttons...))
}

func (e *Engine) sendCurrencies(ctx context.Context, chatID int64, text string) error {
	currencies, err := e.ledger.Currencies(ctx)
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}

	buttons := make([]menu.Button, 0, len(currencies))
	for _, c := range currencies {
		buttons = append(buttons, menu.Button{Text: c.Code, Payload: c.Code})
	}
	return e.send(ctx, chatID, text, e.graph.Layout(menu.KeyboardCurrencies, buttons...))
}

func (e *Engine) invoice(ctx context.Context, userID int64) (*domain.Invoice, error) {
	invoice, err := e.stack.InvoiceByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewSessionError(err)
	}
	if invoice == nil {
		return nil, apperrors.NewStateError("no pending entry")
	}
	return invoice, nil
}

func (e *Engine) report(ctx context.Context, userID int64) (*domain.Report, error) {
	report, err := e.stack.ReportByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewSessionError(err)
	}
	if report == nil {
		return nil, apperrors.NewStateError("no pending report")
	}
	return report, nil
}

func (e *Engine) saveInvoice(ctx context.Context, userID int64, invoice *domain.Invoice) error {
	if err := e.stack.AddInvoice(ctx, userID, invoice); err != nil {
		return apperrors.NewSessionError(err)
	}
	return nil
}

func (e *Engine) saveReport(ctx context.Context, userID int64, report *domain.Report) error {
	if err := e.stack.AddReport(ctx, userID, report); err != nil {
		return apperrors.NewSessionError(err)
	}
	return nil
}

func retryPrompt(err error, prompt string) string {
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return msg + ". " + prompt
}
