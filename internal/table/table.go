// Package table assembles normalized issues into a keyed table with display
// column names and date-typed columns.
package table

import (
	"iter"
	"slices"
	"time"

	"itrack-report/internal/calendar"
	"itrack-report/internal/jira"
)

// Options controls tabular assembly.
type Options struct {
	// Columns renames fields to display names. Unlisted fields keep their name.
	Columns map[string]string
	// DateColumns lists display names whose values are coerced to dates.
	DateColumns []string
}

// Row is one issue. Values is keyed by display column name.
type Row struct {
	Key    string
	Values map[string]any
}

// Value returns the cell for col, or nil.
func (r Row) Value(col string) any {
	return r.Values[col]
}

// Text returns a string cell, or "".
func (r Row) Text(col string) string {
	s, _ := r.Values[col].(string)
	return s
}

// Date returns a date cell.
func (r Row) Date(col string) (time.Time, bool) {
	t, ok := r.Values[col].(time.Time)
	return t, ok
}

// Int returns an integer cell.
func (r Row) Int(col string) (int, bool) {
	switch v := r.Values[col].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool returns a boolean cell, false when absent.
func (r Row) Bool(col string) bool {
	b, _ := r.Values[col].(bool)
	return b
}

// Table is an ordered set of rows indexed by issue key.
type Table struct {
	columns []string
	rows    []Row
	index   map[string]int
}

// Assemble drains issues into a table. Rows keep the sequence order; the first
// row wins when a key repeats.
func Assemble(issues iter.Seq[jira.Issue], opts Options) *Table {
	rename := func(field string) string {
		if name, ok := opts.Columns[field]; ok && name != "" {
			return name
		}
		return field
	}

	seen := make(map[string]bool)
	t := &Table{index: make(map[string]int)}

	for issue := range issues {
		flat := issue.Flatten()
		delete(flat, jira.FieldKey)

		values := make(map[string]any, len(flat))
		for field, v := range flat {
			name := rename(field)
			values[name] = v
			seen[name] = true
		}
		t.append(Row{Key: issue.Key, Values: values})
	}

	for _, col := range opts.DateColumns {
		seen[col] = true
		for _, row := range t.rows {
			row.Values[col] = coerceDate(row.Values[col])
		}
	}

	derived := []string{jira.FieldClosed, jira.FieldDefect, jira.FieldChange, jira.FieldAge, jira.FieldIdle}
	for _, field := range derived {
		name := rename(field)
		t.columns = append(t.columns, name)
		delete(seen, name)
	}
	rest := make([]string, 0, len(seen))
	for name := range seen {
		rest = append(rest, name)
	}
	slices.Sort(rest)
	t.columns = append(t.columns, rest...)

	return t
}

func (t *Table) append(row Row) {
	if _, dup := t.index[row.Key]; !dup {
		t.index[row.Key] = len(t.rows)
	}
	t.rows = append(t.rows, row)
}

// coerceDate maps dates and date strings onto calendar days; anything else is nil.
func coerceDate(v any) any {
	switch d := v.(type) {
	case time.Time:
		return calendar.Day(d)
	case string:
		if t, ok := jira.ParseDate(d); ok {
			return t
		}
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			return calendar.Day(t)
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the display column names, excluding the key.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// HasColumn reports whether col is part of the table.
func (t *Table) HasColumn(col string) bool { return slices.Contains(t.columns, col) }

// Rows returns the rows in order. Row values are shared with the table.
func (t *Table) Rows() []Row { return t.rows }

// Row looks up a row by issue key.
func (t *Table) Row(key string) (Row, bool) {
	i, ok := t.index[key]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// Column returns the cells of col in row order.
func (t *Table) Column(col string) []any {
	out := make([]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = row.Values[col]
	}
	return out
}

// AddColumn sets col on every row to fn(row), appending col if it is new.
func (t *Table) AddColumn(col string, fn func(Row) any) {
	for _, row := range t.rows {
		row.Values[col] = fn(row)
	}
	if !t.HasColumn(col) {
		t.columns = append(t.columns, col)
	}
}

// Filter returns a table holding the rows for which keep is true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{columns: slices.Clone(t.columns), index: make(map[string]int)}
	for _, row := range t.rows {
		if keep(row) {
			out.append(row)
		}
	}
	return out
}
