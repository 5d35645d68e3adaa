package state

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/cashflow-bot/internal/domain"
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrSessionNotFound indicates that a user session does not exist.
	ErrSessionNotFound = errors.New("user session not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Stack is the session store: one entry per user holding the pending invoice and report.
// Callers serialize access per user with a Locker.
type Stack struct {
	storage Storage
	log     *slog.Logger
}

// NewStack creates a session store over the provided storage backend.
func NewStack(storage Storage, log *slog.Logger) *Stack {
	if log == nil {
		log = slog.Default()
	}

	return &Stack{
		storage: storage,
		log:     log,
	}
}

// AddUser starts tracking the user. Tracking an already known user is a no-op.
func (s *Stack) AddUser(ctx context.Context, user *domain.User) error {
	_, err := s.storage.GetSession(ctx, user.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	return s.storage.SaveSession(ctx, &Session{
		UserID: user.ID,
		User:   user,
		State:  StateIdle,
	})
}

// AddInvoice replaces the pending invoice of a tracked user. Untracked users are ignored.
func (s *Stack) AddInvoice(ctx context.Context, userID int64, invoice *domain.Invoice) error {
	return s.update(ctx, userID, func(session *Session) {
		session.Invoice = invoice
	})
}

// AddReport replaces the pending report of a tracked user. Untracked users are ignored.
func (s *Stack) AddReport(ctx context.Context, userID int64, report *domain.Report) error {
	return s.update(ctx, userID, func(session *Session) {
		session.Report = report
	})
}

// InvoiceByUser returns the pending invoice or nil.
func (s *Stack) InvoiceByUser(ctx context.Context, userID int64) (*domain.Invoice, error) {
	session, err := s.session(ctx, userID)
	if err != nil || session == nil {
		return nil, err
	}
	return session.Invoice, nil
}

// ReportByUser returns the pending report or nil.
func (s *Stack) ReportByUser(ctx context.Context, userID int64) (*domain.Report, error) {
	session, err := s.session(ctx, userID)
	if err != nil || session == nil {
		return nil, err
	}
	return session.Report, nil
}

// UserByID returns the tracked user or nil.
func (s *Stack) UserByID(ctx context.Context, userID int64) (*domain.User, error) {
	session, err := s.session(ctx, userID)
	if err != nil || session == nil {
		return nil, err
	}
	return session.User, nil
}

// ClearByUser forgets the user together with the pending items.
func (s *Stack) ClearByUser(ctx context.Context, userID int64) error {
	return s.storage.DeleteSession(ctx, userID)
}

// ClearAll forgets every user.
func (s *Stack) ClearAll(ctx context.Context) error {
	return s.storage.DeleteAll(ctx)
}

// State returns the conversation state. Untracked users are idle.
func (s *Stack) State(ctx context.Context, userID int64) (State, error) {
	session, err := s.session(ctx, userID)
	if err != nil {
		return StateIdle, err
	}
	if session == nil {
		return StateIdle, nil
	}
	return session.State, nil
}

// TransitionTo changes the state of a tracked user if the transition is allowed.
func (s *Stack) TransitionTo(ctx context.Context, userID int64, newState State) error {
	session, err := s.storage.GetSession(ctx, userID)
	if err != nil {
		return err
	}

	current := session.State
	if !IsTransitionAllowed(current, newState) {
		s.log.Warn("invalid state transition", "user_id", userID, "from", current, "to", newState)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	session.State = newState
	return s.storage.SaveSession(ctx, session)
}

func (s *Stack) session(ctx context.Context, userID int64) (*Session, error) {
	session, err := s.storage.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (s *Stack) update(ctx context.Context, userID int64, apply func(*Session)) error {
	session, err := s.session(ctx, userID)
	if err != nil || session == nil {
		return err
	}

	apply(session)
	return s.storage.SaveSession(ctx, session)
}
