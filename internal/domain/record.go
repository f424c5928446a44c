package domain

import (
	"sort"
	"strings"
)

// Record represents one parsed input line.
// Fields holds exactly one entry per recognized column, in no particular order;
// columns the line did not supply map to the empty string.
type Record struct {
	// Line is the 1-based data line index. The header is not counted; blank
	// lines are.
	Line int

	// Fields maps a recognized column name to its raw value
	Fields map[string]string
}

// WriteItem is the store-level put operation built from one Record.
// Attributes contains only the recognized columns that had a non-empty value;
// every value is written with the store's string type.
type WriteItem struct {
	// Line is the source line of the record, kept for diagnostics
	Line int

	// Attributes maps a column name to its string value
	Attributes map[string]string
}

// NewWriteItem builds the put operation for a record.
// Columns are read in the given order and empty values are omitted entirely.
func NewWriteItem(rec Record, columns []string) WriteItem {
	attrs := make(map[string]string, len(columns))
	for _, col := range columns {
		if v := rec.Fields[col]; len(v) > 0 {
			attrs[col] = v
		}
	}
	return WriteItem{Line: rec.Line, Attributes: attrs}
}

// Fingerprint returns a stable string identifying the item's payload.
// Two items with identical attributes share a fingerprint.
func (w WriteItem) Fingerprint() string {
	keys := make([]string, 0, len(w.Attributes))
	for k := range w.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte(0x1f)
		sb.WriteString(w.Attributes[k])
		sb.WriteByte(0x1e)
	}
	return sb.String()
}

// WriteRequest maps a destination table to the put operations addressed to it.
// The same shape is used for the items a store call did not commit
// (the unprocessed set); an empty request is the success terminal state.
type WriteRequest map[string][]WriteItem

// UnprocessedSet is the subset of a WriteRequest the store did not commit.
type UnprocessedSet = WriteRequest

// Len returns the total number of items across all tables.
func (r WriteRequest) Len() int {
	n := 0
	for _, items := range r {
		n += len(items)
	}
	return n
}

// Empty returns true if the request holds no items.
func (r WriteRequest) Empty() bool {
	return r.Len() == 0
}

// Lines returns the source line numbers of every item, table by table in
// sorted table order.
func (r WriteRequest) Lines() []int {
	tables := make([]string, 0, len(r))
	for t := range r {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	lines := make([]int, 0, r.Len())
	for _, t := range tables {
		for _, item := range r[t] {
			lines = append(lines, item.Line)
		}
	}
	return lines
}
