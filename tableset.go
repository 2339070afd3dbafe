package tabconv

import (
	"fmt"
	"strconv"
)

// placeholderColumn substitutes for anonymous column names. Decoders never
// emit an empty key.
const placeholderColumn = "field"

// Row is an ordered mapping of column name to scalar value. Values are
// string, float64, bool, or nil; decoders flatten anything nested before
// it reaches a Row.
type Row struct {
	cols   []string
	values map[string]any
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]any)}
}

// Set adds or updates a column. An empty name is replaced with the
// placeholder. Updating an existing column keeps its original position.
func (r *Row) Set(col string, v any) {
	if col == "" {
		col = placeholderColumn
	}
	if _, ok := r.values[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.values[col] = v
}

// Get returns the value stored under col and whether the column exists.
func (r *Row) Get(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Columns returns the row's column names in insertion order.
func (r *Row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Len returns the number of columns in the row.
func (r *Row) Len() int { return len(r.cols) }

// Table is an ordered sequence of rows sharing a notional column set.
// Rows are not required to agree on columns; Header reconciles them.
type Table struct {
	Name string

	// Columns is the explicit schema, set by decoders that know it
	// (delimited header row, workbook header, extracted grid header).
	// When empty the schema is derived from the rows.
	Columns []string

	Rows []*Row
}

// Header returns the table's column names: the explicit schema when one
// was set, otherwise the union of row columns in first-seen order. Every
// fixed-header encoder uses this.
func (t *Table) Header() []string {
	if len(t.Columns) > 0 {
		out := make([]string, len(t.Columns))
		copy(out, t.Columns)
		return out
	}
	var cols []string
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		for _, c := range row.cols {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// TableSet is the canonical intermediate representation: the ordered
// tables decoded from one input file. Decoders always produce at least
// one table, falling back to a textual rendering when the source has no
// tabular reading.
type TableSet struct {
	Tables []*Table
}

// newTableSet wraps tables, naming any unnamed ones: a lone table is
// "Data", otherwise tables are numbered "Sheet{N}" by position.
func newTableSet(tables ...*Table) *TableSet {
	if len(tables) == 1 {
		if tables[0].Name == "" {
			tables[0].Name = "Data"
		}
	} else {
		for i, t := range tables {
			if t.Name == "" {
				t.Name = fmt.Sprintf("Sheet%d", i+1)
			}
		}
	}
	return &TableSet{Tables: tables}
}

// textTable is the degenerate single-cell table used by textual fallbacks.
func textTable(column, text string) *Table {
	row := NewRow()
	row.Set(column, text)
	return &Table{Columns: []string{column}, Rows: []*Row{row}}
}

// sheetLabel names a table for output purposes, numbering unnamed tables
// by their 0-based position.
func sheetLabel(t *Table, i int) string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("Sheet%d", i+1)
}

// renderValue converts a scalar to its textual form. Nil renders as the
// empty string, never as a literal null token.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}
