package dataset

// Row maps column names to cell values. Raw input cells are strings; derived
// count cells are int64.
type Row map[string]interface{}

// Table is an in-memory tabular dataset with an explicit column order.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([]Row, 0),
	}
}

// Append adds a row. Values for columns not in the table header are ignored
// at serialization time, so callers should keep rows aligned with Columns.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// HasColumn reports whether the table header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RenameColumn renames a header column and the matching key in every row.
// It reports whether the column existed.
func (t *Table) RenameColumn(from, to string) bool {
	found := false
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
			found = true
		}
	}
	if !found {
		return false
	}
	for _, row := range t.Rows {
		if v, ok := row[from]; ok {
			delete(row, from)
			row[to] = v
		}
	}
	return true
}

// Clone returns a deep copy: fresh column slice and fresh row maps. Cell
// values are scalars and are shared.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns...)
	for _, row := range t.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.Append(copied)
	}
	return out
}

// Select returns a new table restricted to the named columns, in the given
// order. Unknown names are skipped. Rows share cell values but not maps.
func (t *Table) Select(columns []string) *Table {
	kept := make([]string, 0, len(columns))
	for _, c := range columns {
		if t.HasColumn(c) {
			kept = append(kept, c)
		}
	}
	out := NewTable(kept...)
	for _, row := range t.Rows {
		projected := make(Row, len(kept))
		for _, c := range kept {
			projected[c] = row[c]
		}
		out.Append(projected)
	}
	return out
}
