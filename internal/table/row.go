package table

import "reflect"

// Row is an ordered list of cell values.
type Row []any

// Rows is an ordered collection of rows.
type Rows struct {
	items []Row
}

// Append adds a row to the end of the collection.
func (r *Rows) Append(row Row) {
	r.items = append(r.items, row)
}

// DeleteAt removes the row at position idx.
func (r *Rows) DeleteAt(idx int) bool {
	if idx < 0 || idx >= len(r.items) {
		return false
	}

	r.items = append(r.items[:idx], r.items[idx+1:]...)
	return true
}

// Delete removes the first row equal to row.
func (r *Rows) Delete(row Row) bool {
	for i, item := range r.items {
		if reflect.DeepEqual(item, row) {
			return r.DeleteAt(i)
		}
	}
	return false
}

// At returns the row at position idx.
func (r *Rows) At(idx int) (Row, bool) {
	if idx < 0 || idx >= len(r.items) {
		return nil, false
	}
	return r.items[idx], true
}

// Count returns the number of rows.
func (r *Rows) Count() int {
	return len(r.items)
}

// All returns a copy of every row.
func (r *Rows) All() []Row {
	out := make([]Row, 0, len(r.items))
	for _, row := range r.items {
		out = append(out, append(Row(nil), row...))
	}
	return out
}

// Clear removes every row.
func (r *Rows) Clear() {
	r.items = nil
}
