// Package repository implements the SQL persistence collaborator of the ledger.
package repository

import (
	"context"
	"errors"

	"github.com/Proton-105/cashflow-bot/internal/table"
)

// Table and column names of the ledger schema.
const (
	TableCategories = "categories"
	TableCurrencies = "currencies"
	TableUsers      = "users"
	TableCashFlow   = "cash_flow"
)

// ErrNotFound indicates that no row matched the lookup.
var ErrNotFound = errors.New("record not found")

// Values maps column names to values for inserts and updates.
type Values map[string]any

// ReportParams selects one of the three report shapes.
type ReportParams struct {
	Start           string
	End             string
	Income          bool
	Expense         bool
	Balance         bool
	GroupByCategory bool
}

// Store is the narrow persistence contract used by the ledger service.
type Store interface {
	// GetByID returns the single row whose idColumn equals id, or ErrNotFound.
	GetByID(ctx context.Context, tbl string, columns []string, id any, idColumn string) (*table.Table, error)
	// GetAvailableID returns max(idColumn)+1, or 1 when the table is empty.
	GetAvailableID(ctx context.Context, tbl, idColumn string) (int64, error)
	// Insert adds one row.
	Insert(ctx context.Context, tbl string, values Values) error
	// Update changes the rows whose idColumn equals id.
	Update(ctx context.Context, tbl string, values Values, id any, idColumn string) error
	// GetAll returns every row of the table ordered by the first column.
	GetAll(ctx context.Context, tbl string, columns []string) (*table.Table, error)
	// GetReport runs an aggregate over cash_flow.
	GetReport(ctx context.Context, params ReportParams) (*table.TreeTable, error)
}
