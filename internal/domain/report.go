package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/cashflow-bot/internal/table"
)

// ReportKind selects which aggregate a report computes.
type ReportKind string

const (
	// ReportBalance sums every entry up to the end of the range.
	ReportBalance ReportKind = "account_balance"
	// ReportExpenses sums expenses within the range.
	ReportExpenses ReportKind = "expenses"
	// ReportIncome sums income within the range.
	ReportIncome ReportKind = "income"
)

// Report result columns. The category of a grouped row is kept in the Parent column.
const (
	ReportAmountColumn   = "Amount"
	ReportCurrencyColumn = "Currency"
)

// ReportFetcher runs the aggregate query for a report.
type ReportFetcher interface {
	GetReport(ctx context.Context, report *Report) (*table.TreeTable, error)
}

// Report is an aggregate over ledger entries for a date range.
type Report struct {
	Kind            ReportKind `json:"kind"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	GroupByCategory bool       `json:"group_by_category"`

	result *table.TreeTable
}

// ParseReportKind validates a kind received from a button.
func ParseReportKind(value string) (ReportKind, bool) {
	switch kind := ReportKind(strings.TrimSpace(value)); kind {
	case ReportBalance, ReportExpenses, ReportIncome:
		return kind, true
	}
	return "", false
}

// NewReport returns a report covering the day of now.
func NewReport(kind ReportKind, now time.Time) *Report {
	r := &Report{Kind: kind}
	r.SetDay(now)
	return r
}

// SetDay makes the report cover a single calendar day.
func (r *Report) SetDay(day time.Time) {
	y, m, d := day.Date()
	r.Start = time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	r.End = time.Date(y, m, d, 23, 59, 59, 0, day.Location())
}

// SetGrouping stores the by-category flag. It only applies to expense reports.
func (r *Report) SetGrouping(group bool) {
	r.GroupByCategory = group && r.Kind == ReportExpenses
}

// StartString formats the range start for storage queries.
func (r *Report) StartString() string {
	return r.Start.Format(DateTimeLayout)
}

// EndString formats the range end for storage queries.
func (r *Report) EndString() string {
	return r.End.Format(DateTimeLayout)
}

// Fetched reports whether the result is cached.
func (r *Report) Fetched() bool {
	return r.result != nil
}

// Fetch runs the query once and caches the result for later calls.
func (r *Report) Fetch(ctx context.Context, fetcher ReportFetcher) (*table.TreeTable, error) {
	if r.result != nil {
		return r.result, nil
	}

	result, err := fetcher.GetReport(ctx, r)
	if err != nil {
		return nil, err
	}

	r.result = result
	return result, nil
}

// Lines renders the cached result as "<amount> <currency>" or "<amount> <currency> > <category>".
func (r *Report) Lines() []string {
	if r.result == nil {
		return nil
	}

	lines := make([]string, 0, r.result.RowCount())
	for i := 0; i < r.result.RowCount(); i++ {
		amount, _ := r.result.Value(table.ByName(ReportAmountColumn), i)
		currency, _ := r.result.Value(table.ByName(ReportCurrencyColumn), i)

		line := fmt.Sprintf("%s %v", formatAmount(amount), currency)
		if category, _ := r.result.Parent(i); category != nil && fmt.Sprint(category) != "" {
			line += fmt.Sprintf(" > %v", category)
		}
		lines = append(lines, line)
	}
	return lines
}

// Title names the report for the chat header.
func (r *Report) Title() string {
	day := r.Start.Format("2006-01-02")
	if end := r.End.Format("2006-01-02"); end != day {
		day += " - " + end
	}

	switch r.Kind {
	case ReportBalance:
		return "Balance on " + r.End.Format("2006-01-02")
	case ReportIncome:
		return "Income for " + day
	default:
		if r.GroupByCategory {
			return "Expenses by category for " + day
		}
		return "Expenses for " + day
	}
}

func formatAmount(value any) string {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.String()
	case nil:
		return "0"
	default:
		return fmt.Sprint(v)
	}
}
