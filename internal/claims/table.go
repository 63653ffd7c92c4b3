// In file: internal/claims/table.go
package claims

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrNoColumns       = errors.New("table has no columns")
)

// Table is an immutable, ordered set of projected records. Accessors return
// copies so a snapshot can be shared between goroutines without locking.
type Table struct {
	columns []string
	index   map[string]int
	records []Record
}

// NewTable builds a table over columns, which must be a non-empty list of
// distinct known columns. Projected tables use DefaultColumns; tables read
// back from CSV may carry a subset.
func NewTable(columns []string, records []Record) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if !IsKnownColumn(c) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c)
		}
		index[c] = i
	}

	cols := make([]string, len(columns))
	copy(cols, columns)
	recs := make([]Record, len(records))
	for i, r := range records {
		recs[i] = r.normalized()
	}

	return &Table{columns: cols, index: index, records: recs}, nil
}

// Empty returns a zero-row table over the default projection.
func Empty() *Table {
	t, _ := NewTable(defaultColumns, nil)
	return t
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) HasColumn(column string) bool {
	_, ok := t.index[column]
	return ok
}

func (t *Table) Len() int { return len(t.records) }

// Record returns row i. It panics on an out-of-range index, like a slice.
func (t *Table) Record(i int) Record { return t.records[i] }

func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Row returns row i as CSV cells in column order.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j, c := range t.columns {
		row[j], _ = t.records[i].Field(c)
	}
	return row
}

// Cell returns the value of column in row i; ok is false when the table
// does not carry that column.
func (t *Table) Cell(i int, column string) (string, bool) {
	if !t.HasColumn(column) {
		return "", false
	}
	return t.records[i].Field(column)
}
