package core

import (
	"fmt"
	"math"
	"strings"
)

// RenderKind selects how a column's cells are drawn.
type RenderKind int

const (
	RenderText    RenderKind = iota // formatted value, single line
	RenderVideo                     // embedded player frame keyed by the cell value
	RenderWrapped                   // free text wrapped anywhere
)

// String returns the name used in JSON column metadata.
func (rk RenderKind) String() string {
	switch rk {
	case RenderVideo:
		return "video"
	case RenderWrapped:
		return "wrapped"
	default:
		return "text"
	}
}

// Predicate decides whether a cell passes a filter.
type Predicate func(Value) bool

// FilterOperatorDef describes one filter operator offered for a column.
type FilterOperatorDef struct {
	Op     FilterOperator
	Label  string
	Symbol string

	// Build turns the user's filter value into a predicate. A nil predicate
	// means the filter is disabled and every row passes.
	Build func(value string) Predicate
}

// Column is the pure configuration of one table column. It has no
// knowledge of any rendering engine.
type Column struct {
	Key          string
	Label        string
	Width        int // pixels
	Type         FieldType
	Sortable     bool
	SortingOrder []SortDir // order a header click cycles through

	// Compare orders two records ascending for this column. It receives
	// full records so tie-breaks on sibling columns need no lookups.
	// nil uses the default for the column type.
	Compare func(a, b *Record) int

	Operators []FilterOperatorDef
	Format    func(Value) string
	Render    RenderKind
}

// Operator returns the filter operator definition for op.
func (c Column) Operator(op FilterOperator) (FilterOperatorDef, bool) {
	for _, def := range c.Operators {
		if def.Op == op {
			return def, true
		}
	}
	return FilterOperatorDef{}, false
}

// FormatValue renders a cell using the column formatter.
func (c Column) FormatValue(v Value) string {
	if c.Format == nil {
		return v.String()
	}
	return c.Format(v)
}

// NextSort returns the direction a header click moves to from current,
// cycling through SortingOrder.
func (c Column) NextSort(current SortDir) SortDir {
	order := c.SortingOrder
	if len(order) == 0 {
		order = []SortDir{SortAsc, SortDesc}
	}
	if current == "" {
		return order[0]
	}
	for i, d := range order {
		if d == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// NumericThreshold builds a filter operator comparing a numeric cell with
// the user's number. NaN cells and non-numeric thresholds never match.
func NumericThreshold(op FilterOperator, label, symbol string, keep func(cell, threshold float64) bool) FilterOperatorDef {
	return FilterOperatorDef{
		Op:     op,
		Label:  label,
		Symbol: symbol,
		Build: func(value string) Predicate {
			if strings.TrimSpace(value) == "" {
				return nil
			}
			threshold := ToNumber(value)
			return func(v Value) bool {
				cell := v.Float()
				if math.IsNaN(cell) || math.IsNaN(threshold) {
					return false
				}
				return keep(cell, threshold)
			}
		},
	}
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Title string `json:"title"` // page heading
}

// TableDefinition is everything needed to present the dataset as a table.
type TableDefinition struct {
	Info      TableInfo
	Columns   []Column
	Default   ViewState
	PageSizes []int
}

// Column returns a column by key (case-insensitive).
func (t TableDefinition) Column(key string) (Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Key, key) {
			return c, true
		}
	}
	return Column{}, false
}

// ValidPageSize reports whether n is one of the selectable page sizes.
func (t TableDefinition) ValidPageSize(n int) bool {
	for _, s := range t.PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// NormalizeView checks a view against the table's columns and fills in
// pagination defaults. Unknown columns and operators are errors; a page
// size outside PageSizes falls back to the default page size and a page
// below 1 becomes 1.
func (t TableDefinition) NormalizeView(v ViewState) (ViewState, error) {
	out := ViewState{Page: v.Page, PageSize: v.PageSize}

	for _, s := range v.Sorts {
		col, ok := t.Column(s.Column)
		if !ok {
			return ViewState{}, fmt.Errorf("%w: sort by %q", ErrUnknownColumn, s.Column)
		}
		if !col.Sortable {
			return ViewState{}, fmt.Errorf("%w: %q is not sortable", ErrUnsupportedOp, col.Key)
		}
		dir, ok := ParseSortDir(string(s.Dir))
		if !ok {
			dir = SortAsc
		}
		out.Sorts = append(out.Sorts, SortSpec{Column: col.Key, Dir: dir})
	}

	for _, f := range v.Filters.Filters {
		col, ok := t.Column(f.Column)
		if !ok {
			return ViewState{}, fmt.Errorf("%w: filter on %q", ErrUnknownColumn, f.Column)
		}
		if _, ok := col.Operator(f.Operator); !ok {
			return ViewState{}, fmt.Errorf("%w: %q on %q", ErrUnsupportedOp, f.Operator, col.Key)
		}
		out.Filters.Filters = append(out.Filters.Filters, ColumnFilter{
			Column:   col.Key,
			Operator: f.Operator,
			Value:    strings.TrimSpace(f.Value),
		})
	}

	if !t.ValidPageSize(out.PageSize) {
		out.PageSize = t.Default.PageSize
	}
	if out.PageSize <= 0 {
		out.PageSize = DefaultPageSize
	}
	if out.Page < 1 {
		out.Page = 1
	}
	return out, nil
}

// DefaultPageSize is used when a table definition leaves Default.PageSize unset.
const DefaultPageSize = 25
