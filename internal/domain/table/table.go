// Package table holds an immutable string table, the one-time classification of its
// columns into kinds, and the per-kind filters applied on top of it.
package table

import (
	"fmt"
	"slices"
)

// Table is an immutable table of string cells with a header row.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a Table. Every row must have exactly len(columns) cells.
func New(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, c)
		}
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrShape, i, len(r), len(columns))
		}
	}
	return &Table{
		columns: slices.Clone(columns),
		index:   index,
		rows:    rows,
	}, nil
}

// Columns returns the header in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Index returns the position of column name and whether it exists.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Cell returns the value at row r, column c.
func (t *Table) Cell(r, c int) string { return t.rows[r][c] }

// Row returns a copy of row r.
func (t *Table) Row(r int) []string { return slices.Clone(t.rows[r]) }

// Rows returns a copy of every row.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Project returns a new table holding the given rows and columns, both by position
// and in the given order.
func (t *Table) Project(rows, cols []int) *Table {
	columns := make([]string, len(cols))
	for i, c := range cols {
		columns[i] = t.columns[c]
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = t.rows[r][c]
		}
		out[i] = row
	}
	nt, _ := New(columns, out) // shape holds by construction
	return nt
}
