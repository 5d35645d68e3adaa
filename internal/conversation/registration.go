package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/menu"
	"github.com/Proton-105/cashflow-bot/internal/user"
)

// register handles /reg: the administrator gets a yes/no question about the sender.
func (e *Engine) register(ctx context.Context, upd Update) error {
	status, admin, err := e.registry.RequestAccess(ctx, upd.User)
	if err != nil {
		if errors.Is(err, user.ErrNoAdministrator) {
			return e.send(ctx, upd.ChatID, textRegistryClosed, nil)
		}
		return apperrors.NewDatabaseError(err)
	}

	switch status {
	case user.RequestRegistered:
		return e.send(ctx, upd.ChatID, textAlreadyUser, nil)
	case user.RequestPending:
		return e.send(ctx, upd.ChatID, textRequestPending, nil)
	}

	layout := e.graph.Layout(menu.KeyboardNewUser)
	for i := range layout.Rows {
		for j := range layout.Rows[i] {
			btn := &layout.Rows[i][j]
			btn.Payload = fmt.Sprintf("%s%s%d", btn.Payload, menu.CallbackDataSeparator, upd.User.ID)
		}
	}

	question := fmt.Sprintf(textAccessRequest, upd.User.DisplayName(), upd.User.ID)
	if err := e.send(ctx, admin.ID, question, layout); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, textRequestSent, nil)
}

// resolveRegistration applies the administrator answer "yes:<id>" or "no:<id>".
func (e *Engine) resolveRegistration(ctx context.Context, upd Update) error {
	isAdmin, err := e.registry.IsAdministrator(ctx, upd.User.ID)
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}
	if !isAdmin {
		return e.send(ctx, upd.ChatID, textNoAccess, nil)
	}

	answer, rawID, _ := strings.Cut(upd.Payload, menu.CallbackDataSeparator)
	candidateID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || (answer != menu.AnswerYes && answer != menu.AnswerNo) {
		return apperrors.NewValidationError("malformed registration answer")
	}
	approve := answer == menu.AnswerYes

	candidate, err := e.registry.Resolve(ctx, candidateID, approve)
	if err != nil {
		if errors.Is(err, user.ErrNoPendingRequest) {
			return e.send(ctx, upd.ChatID, textNoSuchRequest, nil)
		}
		return apperrors.NewDatabaseError(err)
	}

	reply, verdict := textAccessDenied, "declined"
	if approve {
		reply, verdict = textAccessGranted, "approved"
	}
	if err := e.send(ctx, candidate.ID, reply, nil); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, fmt.Sprintf(textRequestResolved, candidate.DisplayName(), verdict), nil)
}
