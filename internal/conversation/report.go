package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/menu"
)

// Accepted layouts for a typed report date.
var dateLayouts = []string{"2006-01-02", "02.01.2006"}

func (e *Engine) startReport(ctx context.Context, upd Update) error {
	if err := e.begin(ctx, upd.User); err != nil {
		return err
	}

	keyboard, err := e.next(menu.KeyboardStart, menu.ActionReports, "")
	if err != nil {
		return err
	}
	if err := e.moveTo(ctx, upd.User.ID, stateOf(keyboard)); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, textChooseReport, e.graph.Layout(keyboard))
}

func (e *Engine) selectReport(ctx context.Context, upd Update) error {
	kind, ok := domain.ParseReportKind(upd.Payload)
	if !ok {
		return apperrors.NewValidationError("unknown report")
	}

	keyboard, err := e.next(menu.KeyboardReports, menu.ActionReport, upd.Payload)
	if err != nil {
		return err
	}

	if err := e.saveReport(ctx, upd.User.ID, domain.NewReport(kind, e.now())); err != nil {
		return err
	}
	if err := e.moveTo(ctx, upd.User.ID, stateOf(keyboard)); err != nil {
		return err
	}

	text := textAskDate
	if keyboard == menu.KeyboardGrouping {
		text = textAskGrouping
	}
	return e.send(ctx, upd.ChatID, text, e.graph.Layout(keyboard))
}

func (e *Engine) selectGrouping(ctx context.Context, upd Update) error {
	keyboard, err := e.next(menu.KeyboardGrouping, menu.ActionGroup, upd.Payload)
	if err != nil {
		return err
	}

	report, err := e.report(ctx, upd.User.ID)
	if err != nil {
		return err
	}
	report.SetGrouping(upd.Payload == menu.AnswerYes)
	if err := e.saveReport(ctx, upd.User.ID, report); err != nil {
		return err
	}

	if err := e.moveTo(ctx, upd.User.ID, stateOf(keyboard)); err != nil {
		return err
	}
	return e.send(ctx, upd.ChatID, textAskDate, e.graph.Layout(keyboard))
}

func (e *Engine) reportToday(ctx context.Context, upd Update) error {
	return e.runReport(ctx, upd, e.now())
}

func (e *Engine) reportForDate(ctx context.Context, upd Update) error {
	day, ok := parseDate(upd.Text, e.now().Location())
	if !ok {
		return e.send(ctx, upd.ChatID, textBadDate+" "+textAskDate, e.graph.Layout(menu.KeyboardDate))
	}
	return e.runReport(ctx, upd, day)
}

// runReport executes the pending report for a single day, renders it and ends the dialogue.
func (e *Engine) runReport(ctx context.Context, upd Update, day time.Time) error {
	report, err := e.report(ctx, upd.User.ID)
	if err != nil {
		return err
	}
	report.SetDay(day)

	if _, err := e.ledger.FetchReport(ctx, report); err != nil {
		return apperrors.NewDatabaseError(err)
	}
	e.recorder.ReportGenerated(string(report.Kind))

	if err := e.clear(ctx, upd.User.ID); err != nil {
		return err
	}
	return e.sendStart(ctx, upd.ChatID, renderReport(report))
}

func renderReport(report *domain.Report) string {
	lines := report.Lines()
	if len(lines) == 0 {
		return report.Title() + "\n" + textNoData
	}
	return report.Title() + "\n" + strings.Join(lines, "\n")
}

func parseDate(text string, loc *time.Location) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if day, err := time.ParseInLocation(layout, text, loc); err == nil {
			return day, true
		}
	}
	return time.Time{}, false
}
