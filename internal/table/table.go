package table

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoSuchColumn indicates that a column selector did not match any column.
	ErrNoSuchColumn = errors.New("no such column")
	// ErrRowIndex indicates that a row index is out of range.
	ErrRowIndex = errors.New("row index out of range")
	// ErrValuesMoreThanColumns indicates that a row is wider than the table.
	ErrValuesMoreThanColumns = errors.New("there are more values in the row than columns in the table")
)

// ColumnSelector addresses a column by index, by name or by the column itself.
type ColumnSelector interface {
	columnIndex(cols *Columns) (int, bool)
}

// ByIndex selects a column by its zero-based position.
type ByIndex int

func (i ByIndex) columnIndex(cols *Columns) (int, bool) {
	if int(i) < 0 || int(i) >= cols.Count() {
		return -1, false
	}
	return int(i), true
}

// ByName selects a column by name, ignoring case and surrounding whitespace.
type ByName string

func (n ByName) columnIndex(cols *Columns) (int, bool) {
	idx, _, ok := cols.Find(string(n))
	return idx, ok
}

func (c *Column) columnIndex(cols *Columns) (int, bool) {
	if c == nil {
		return -1, false
	}
	idx, _, ok := cols.Find(c.name)
	return idx, ok
}

// Table is a set of columns and rows where every row is exactly as wide as the column set.
type Table struct {
	columns *Columns
	rows    Rows
}

// New builds a table. Short rows are padded with nil, wider rows fail with ErrValuesMoreThanColumns.
func New(columns *Columns, rows ...Row) (*Table, error) {
	t := &Table{columns: columns.Clone()}
	for i, row := range rows {
		if err := t.AppendRow(row...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return t, nil
}

// MustNew is like New but panics when a row does not fit.
func MustNew(columns *Columns, rows ...Row) *Table {
	t, err := New(columns, rows...)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns a copy of the table columns.
func (t *Table) Columns() *Columns {
	return t.columns.Clone()
}

// ColumnCount returns the table width.
func (t *Table) ColumnCount() int {
	return t.columns.Count()
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return t.rows.Count()
}

// Rows returns a copy of all rows.
func (t *Table) Rows() []Row {
	return t.rows.All()
}

// Row returns a copy of the row at idx.
func (t *Table) Row(idx int) (Row, error) {
	row, ok := t.rows.At(idx)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRowIndex, idx)
	}
	return append(Row(nil), row...), nil
}

// AppendRow adds a row, padding it with nil up to the table width.
func (t *Table) AppendRow(values ...any) error {
	width := t.columns.Count()
	if len(values) > width {
		return fmt.Errorf("%w: %d values, %d columns", ErrValuesMoreThanColumns, len(values), width)
	}

	row := make(Row, width)
	copy(row, values)
	t.rows.Append(row)
	return nil
}

// DeleteRow removes the row at idx.
func (t *Table) DeleteRow(idx int) error {
	if !t.rows.DeleteAt(idx) {
		return fmt.Errorf("%w: %d", ErrRowIndex, idx)
	}
	return nil
}

// RemoveRow removes the first row equal to row.
func (t *Table) RemoveRow(row Row) bool {
	return t.rows.Delete(row)
}

// AppendColumn adds a column and pads every existing row with nil.
func (t *Table) AppendColumn(name string) bool {
	if !t.columns.Append(name) {
		return false
	}
	for i := range t.rows.items {
		t.rows.items[i] = append(t.rows.items[i], nil)
	}
	return true
}

// DeleteColumn removes the selected column and its cell from every row.
func (t *Table) DeleteColumn(sel ColumnSelector) bool {
	idx, ok := sel.columnIndex(t.columns)
	if !ok {
		return false
	}

	t.columns.DeleteAt(idx)
	for i, row := range t.rows.items {
		t.rows.items[i] = append(row[:idx], row[idx+1:]...)
	}
	return true
}

// Value returns the cell at the selected column and row.
func (t *Table) Value(sel ColumnSelector, row int) (any, error) {
	col, r, err := t.cell(sel, row)
	if err != nil {
		return nil, err
	}
	return r[col], nil
}

// SetValue replaces the cell at the selected column and row.
func (t *Table) SetValue(sel ColumnSelector, row int, value any) error {
	col, r, err := t.cell(sel, row)
	if err != nil {
		return err
	}
	r[col] = value
	return nil
}

// Find returns the index of the first row whose selected cell equals value.
func (t *Table) Find(sel ColumnSelector, value any) (int, bool) {
	col, ok := sel.columnIndex(t.columns)
	if !ok {
		return -1, false
	}
	for i, row := range t.rows.items {
		if reflect.DeepEqual(row[col], value) {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) cell(sel ColumnSelector, row int) (int, Row, error) {
	col, ok := sel.columnIndex(t.columns)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %v", ErrNoSuchColumn, sel)
	}
	r, ok := t.rows.At(row)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %d", ErrRowIndex, row)
	}
	return col, r, nil
}
