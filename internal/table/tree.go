package table

const (
	// ParentColumn names the reserved column holding the node that produced a row.
	ParentColumn = "Parent"
	// OwnerColumn names the reserved column holding the node a row leads to.
	OwnerColumn = "Owner"
)

// TreeTable is a Table whose columns always end with Parent and Owner.
type TreeTable struct {
	*Table
}

// NewTree builds a tree table. Parent and Owner are moved to the end of the column set.
func NewTree(columns *Columns, rows ...Row) (*TreeTable, error) {
	cols := columns.Clone()
	cols.Delete(ParentColumn)
	cols.Delete(OwnerColumn)
	cols.Append(ParentColumn)
	cols.Append(OwnerColumn)

	t, err := New(cols, rows...)
	if err != nil {
		return nil, err
	}
	return &TreeTable{Table: t}, nil
}

// MustNewTree is like NewTree but panics when a row does not fit.
func MustNewTree(columns *Columns, rows ...Row) *TreeTable {
	t, err := NewTree(columns, rows...)
	if err != nil {
		panic(err)
	}
	return t
}

// DeleteColumn refuses to drop the reserved columns.
func (t *TreeTable) DeleteColumn(sel ColumnSelector) bool {
	idx, ok := sel.columnIndex(t.columns)
	if !ok || idx >= t.columns.Count()-2 {
		return false
	}
	return t.Table.DeleteColumn(sel)
}

// AppendColumn inserts the column before Parent and Owner.
func (t *TreeTable) AppendColumn(name string) bool {
	col := NewColumn(name)
	if col.name == "" {
		return false
	}
	if _, _, exists := t.columns.Find(col.name); exists {
		return false
	}

	width := t.columns.Count()
	items := make([]*Column, 0, width+1)
	items = append(items, t.columns.items[:width-2]...)
	items = append(items, col)
	items = append(items, t.columns.items[width-2:]...)
	t.columns.items = items

	for i, row := range t.rows.items {
		r := make(Row, 0, width+1)
		r = append(r, row[:width-2]...)
		r = append(r, nil)
		r = append(r, row[width-2:]...)
		t.rows.items[i] = r
	}
	return true
}

// FindRow returns the index of the first row whose selected cell equals value.
func (t *TreeTable) FindRow(sel ColumnSelector, value any) (int, bool) {
	return t.Find(sel, value)
}

// Parent returns the Parent cell of a row.
func (t *TreeTable) Parent(row int) (any, error) {
	return t.Value(ByName(ParentColumn), row)
}

// Owner returns the Owner cell of a row.
func (t *TreeTable) Owner(row int) (any, error) {
	return t.Value(ByName(OwnerColumn), row)
}

// SetParent sets the Parent cell of a row.
func (t *TreeTable) SetParent(row int, value any) error {
	return t.SetValue(ByName(ParentColumn), row, value)
}

// SetOwner sets the Owner cell of a row.
func (t *TreeTable) SetOwner(row int, value any) error {
	return t.SetValue(ByName(OwnerColumn), row, value)
}
