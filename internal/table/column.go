// Package table provides a small tabular data model used for keyboard graphs and query results.
package table

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeName trims the name and capitalizes it: first letter upper-cased, the rest lower-cased.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

// Column is a named table column.
type Column struct {
	name string
}

// NewColumn returns a column with a normalized name.
func NewColumn(name string) *Column {
	return &Column{name: NormalizeName(name)}
}

// Name returns the normalized column name.
func (c *Column) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

func (c *Column) String() string {
	return c.Name()
}

// Columns is an ordered collection of uniquely named columns.
type Columns struct {
	items []*Column
}

// NewColumns builds a collection from names, skipping empty and duplicate ones.
func NewColumns(names ...string) *Columns {
	cols := &Columns{}
	for _, name := range names {
		cols.Append(name)
	}
	return cols
}

// Append adds a column by name. It reports false when the name is empty or already present.
func (c *Columns) Append(name string) bool {
	return c.AppendColumn(NewColumn(name))
}

// AppendColumn adds the column unless a column with the same name already exists.
func (c *Columns) AppendColumn(col *Column) bool {
	if col == nil || col.name == "" {
		return false
	}
	if _, _, ok := c.Find(col.name); ok {
		return false
	}

	c.items = append(c.items, col)
	return true
}

// Delete removes the column with the given name.
func (c *Columns) Delete(name string) bool {
	idx, _, ok := c.Find(name)
	if !ok {
		return false
	}
	return c.DeleteAt(idx)
}

// DeleteAt removes the column at position idx.
func (c *Columns) DeleteAt(idx int) bool {
	if idx < 0 || idx >= len(c.items) {
		return false
	}

	c.items = append(c.items[:idx], c.items[idx+1:]...)
	return true
}

// Find looks a column up by name, ignoring case and surrounding whitespace.
func (c *Columns) Find(name string) (int, *Column, bool) {
	name = NormalizeName(name)
	for i, col := range c.items {
		if col.name == name {
			return i, col, true
		}
	}
	return -1, nil, false
}

// FindColumn looks up this exact column instance.
func (c *Columns) FindColumn(col *Column) (int, bool) {
	if col == nil {
		return -1, false
	}
	for i, item := range c.items {
		if item == col {
			return i, true
		}
	}
	return -1, false
}

// DeleteColumn removes this exact column instance.
func (c *Columns) DeleteColumn(col *Column) bool {
	idx, ok := c.FindColumn(col)
	if !ok {
		return false
	}
	return c.DeleteAt(idx)
}

// At returns the column at position idx.
func (c *Columns) At(idx int) (*Column, bool) {
	if idx < 0 || idx >= len(c.items) {
		return nil, false
	}
	return c.items[idx], true
}

// Count returns the number of columns.
func (c *Columns) Count() int {
	return len(c.items)
}

// Ubound returns the highest column index, or -1 for an empty collection.
func (c *Columns) Ubound() int {
	return len(c.items) - 1
}

// All returns the columns in order. The slice is a copy; the columns are shared.
func (c *Columns) All() []*Column {
	return append([]*Column(nil), c.items...)
}

// Names returns column names in order.
func (c *Columns) Names() []string {
	names := make([]string, 0, len(c.items))
	for _, col := range c.items {
		names = append(names, col.name)
	}
	return names
}

// Set replaces the collection with the given names. When none of them is usable the previous
// columns are kept and Set reports false.
func (c *Columns) Set(names ...string) bool {
	previous := c.items
	c.items = nil

	for _, name := range names {
		c.Append(name)
	}

	if len(c.items) == 0 {
		c.items = previous
		return false
	}
	return true
}

// Clear removes every column.
func (c *Columns) Clear() {
	c.items = nil
}

// Clone returns an independent copy of the collection.
func (c *Columns) Clone() *Columns {
	if c == nil {
		return &Columns{}
	}

	clone := &Columns{items: make([]*Column, 0, len(c.items))}
	for _, col := range c.items {
		clone.items = append(clone.items, &Column{name: col.name})
	}
	return clone
}
