// Package table loads tabular class data (CSV sources) into uniform
// in-memory tables and resolves logical columns whose names vary between
// sources.
package table

import (
	"strings"
)

// Row maps a column name to a cell value. All values are plain strings,
// trimmed of surrounding whitespace; blank or absent cells are "".
type Row map[string]string

// Table is an ordered sequence of rows plus the column order from the
// source header. Column sets may differ between tables but not between
// rows of the same table.
type Table struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Clone returns a deep copy. Aggregation renames and rewrites columns and
// must never mutate the loaded source table.
func (t Table) Clone() Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// RenameColumn renames a column in place, preserving its position in the
// column order. A no-op when from == to or the column is absent.
func (t *Table) RenameColumn(from, to string) {
	if from == to {
		return
	}
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			delete(r, from)
			r[to] = v
		}
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ResolveColumn finds the first candidate that matches one of the table's
// columns, comparing case-insensitively and ignoring surrounding
// whitespace. It returns the actual column name as spelled in the table.
// Candidate priority wins over column order.
func ResolveColumn(columns []string, candidates []string) (string, bool) {
	normalized := make(map[string]string, len(columns))
	for _, c := range columns {
		key := normalizeName(c)
		if _, seen := normalized[key]; !seen {
			normalized[key] = c
		}
	}
	for _, cand := range candidates {
		if actual, ok := normalized[normalizeName(cand)]; ok {
			return actual, true
		}
	}
	return "", false
}
