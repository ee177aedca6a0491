package domain

import "strings"

// Row is one warehouse record. Column order is preserved so that
// generic rendering is deterministic. A column holding nil is treated
// as absent.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow builds a row from parallel column and value slices.
// Extra values without a column are ignored.
func NewRow(columns []string, values []any) Row {
	r := Row{
		columns: make([]string, 0, len(columns)),
		values:  make(map[string]any, len(columns)),
	}
	for i, c := range columns {
		if _, dup := r.values[c]; dup {
			continue
		}
		r.columns = append(r.columns, c)
		if i < len(values) {
			r.values[c] = values[i]
		} else {
			r.values[c] = nil
		}
	}
	return r
}

// RowFromPairs builds a row from alternating column names and values.
// Non-string column names are skipped.
func RowFromPairs(pairs ...any) Row {
	var cols []string
	var vals []any
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			continue
		}
		cols = append(cols, name)
		vals = append(vals, pairs[i+1])
	}
	return NewRow(cols, vals)
}

// Get returns the value of a column. The boolean is false when the
// column is missing or null. Lookup falls back to a case-insensitive
// match so that drivers which fold identifiers still resolve.
func (r Row) Get(field string) (any, bool) {
	if v, ok := r.values[field]; ok {
		return v, v != nil
	}
	for _, c := range r.columns {
		if strings.EqualFold(c, field) {
			v := r.values[c]
			return v, v != nil
		}
	}
	return nil, false
}

// Columns returns the column names in source order.
func (r Row) Columns() []string {
	return r.columns
}

// TableData is the ordered set of rows read from one table.
type TableData struct {
	Name string
	Rows []Row
}
