// Package table holds the in-memory representation of a delimited file and
// the loader that builds it.
//
// A Table is a column list plus rows of nullable text cells. A cell whose
// Valid flag is false is the missing-value marker: it stands for an empty
// source cell, or for a column a concatenated source did not have.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ErrUnknownColumn is returned when a column name is not part of the table.
var ErrUnknownColumn = errors.New("column not found")

// Row is one record. Cells are positional and follow Table.Columns.
type Row []pgtype.Text

// Table is an ordered sequence of rows sharing one column set.
type Table struct {
	Columns []string
	Rows    []Row

	// Source is the file the rows came from. Concatenated tables join
	// their sources with ", ".
	Source string

	// Skipped counts malformed lines dropped while loading.
	Skipped int

	parts []Part
	index map[string]int
}

// Part records how many rows one source file contributed.
type Part struct {
	Source  string
	Rows    int
	Skipped int
}

// Parts returns the per-file breakdown of the table. A loaded table is one
// part; a concatenated table has one part per loaded input.
func (t *Table) Parts() []Part {
	if t == nil {
		return nil
	}
	if len(t.parts) > 0 {
		return append([]Part(nil), t.parts...)
	}
	return []Part{{Source: t.Source, Rows: len(t.Rows), Skipped: t.Skipped}}
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// AppendValues adds a row built from raw strings. Values are cleaned the
// same way the loader cleans file cells; a row shorter than the column set
// is padded with missing markers and extra values are rejected.
func (t *Table) AppendValues(values ...string) error {
	if len(values) > len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	row := make(Row, len(t.Columns))
	for i, v := range values {
		row[i] = ToText(v)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Cell returns the value of column in row i. Unknown columns and
// out-of-range rows yield the missing marker.
func (t *Table) Cell(i int, column string) pgtype.Text {
	pos, ok := t.ColumnIndex(column)
	if !ok || i < 0 || i >= len(t.Rows) || pos >= len(t.Rows[i]) {
		return pgtype.Text{}
	}
	return t.Rows[i][pos]
}

// Where returns a new table holding the rows whose cell in column equals one
// of values. Comparison is on the raw text, so it is only meaningful for
// columns that need no coercion. Missing cells never match.
func (t *Table) Where(column string, values ...string) (*Table, error) {
	pos, ok := t.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[strings.TrimSpace(v)] = struct{}{}
	}

	out := New(t.Columns...)
	out.Source = t.Source
	for _, row := range t.Rows {
		cell := row[pos]
		if !cell.Valid {
			continue
		}
		if _, ok := allowed[cell.String]; ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Concat joins tables end to end. The result's columns are the union of the
// inputs' columns in first-seen order; rows keep their order within each
// source and sources keep argument order. A source without one of the union
// columns contributes missing markers for it. Nil tables are ignored.
func Concat(tables ...*Table) *Table {
	var columns []string
	seen := make(map[string]bool)
	var sources []string
	var parts []Part
	total, skipped := 0, 0

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
		if t.Source != "" {
			sources = append(sources, t.Source)
		}
		total += len(t.Rows)
		skipped += t.Skipped
		parts = append(parts, t.Parts()...)
	}

	out := New(columns...)
	out.Source = strings.Join(sources, ", ")
	out.Skipped = skipped
	out.parts = parts
	out.Rows = make([]Row, 0, total)

	for _, t := range tables {
		if t == nil {
			continue
		}
		// mapping[i] is the position in out of t's column i
		mapping := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			mapping[i], _ = out.ColumnIndex(c)
		}
		for _, src := range t.Rows {
			row := make(Row, len(columns))
			for i, cell := range src {
				if i < len(mapping) {
					row[mapping[i]] = cell
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}

	return out
}
