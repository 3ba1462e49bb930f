// Package table holds the in-memory row model shared by every stage:
// loading, pre-filtering, classification merge and export all operate on
// Table values and never mutate one in place.
package table

// Table is an ordered set of rows under a fixed header. Every row has
// exactly len(Columns) cells; an absent value is the empty string.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// WithRows returns a new Table sharing this table's header. The row slices
// themselves are shared, never copied; stages only ever subset them.
func (t *Table) WithRows(rows [][]string) *Table {
	return &Table{Columns: t.Columns, Rows: rows}
}

// Empty returns a zero-row table with this table's header.
func (t *Table) Empty() *Table {
	return &Table{Columns: t.Columns, Rows: nil}
}
