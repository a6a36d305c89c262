package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// FieldType represents the data type of a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

// String returns the name used in JSON column metadata.
func (ft FieldType) String() string {
	if ft == FieldNumeric {
		return "numeric"
	}
	return "text"
}

// Well-known column keys of the scores resource.
const (
	ColID          = "id"
	ColGenderMale  = "gender_male"
	ColImpressions = "impressions"
	ColReason      = "reason"
)

// ValueKind tags a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindNaN
)

// Value is a tagged cell value: a string, a number, or the not-a-number
// sentinel produced when numeric coercion fails.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// StringValue wraps s as a text value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue wraps f, tagging NaN as KindNaN.
func NumberValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{Kind: KindNaN, Num: f}
	}
	return Value{Kind: KindNumber, Num: f}
}

// IsNaN reports whether v is the not-a-number sentinel.
func (v Value) IsNaN() bool {
	return v.Kind == KindNaN
}

// Float returns the numeric value. Strings and NaN yield NaN.
func (v Value) Float() float64 {
	if v.Kind == KindNumber {
		return v.Num
	}
	return math.NaN()
}

// String renders the value without rounding.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindNaN:
		return "NaN"
	default:
		return v.Str
	}
}

// Record is one row of the scores resource. The four known columns are
// typed; anything else in the source is kept in Extra as text.
type Record struct {
	ID          string
	GenderMale  float64 // NaN when the source cell was empty or not a number
	Impressions float64 // NaN when the source cell was empty or not a number
	Reason      string
	Extra       map[string]Value
	Line        int // 1-based line in the source, header is line 1
}

// Field returns the value of a column by key. Unknown keys yield an
// empty string value.
func (r *Record) Field(key string) Value {
	switch key {
	case ColID:
		return StringValue(r.ID)
	case ColGenderMale:
		return NumberValue(r.GenderMale)
	case ColImpressions:
		return NumberValue(r.Impressions)
	case ColReason:
		return StringValue(r.Reason)
	}
	if v, ok := r.Extra[strings.ToLower(key)]; ok {
		return v
	}
	return StringValue("")
}

// LoadStats describes what the loader saw while parsing a resource.
type LoadStats struct {
	Rows           int           `json:"rows"`
	Blank          int           `json:"blank"`
	Malformed      int           `json:"malformed"`
	NaNScores      int           `json:"nanScores"`
	NaNImpressions int           `json:"nanImpressions"`
	DuplicateIDs   int           `json:"duplicateIds"`
	Bytes          int64         `json:"bytes"`
	Duration       time.Duration `json:"duration"`
}

// Dataset is an immutable snapshot of the loaded records.
// Nothing mutates a Dataset after it is handed to the Service.
type Dataset struct {
	ID       string
	Source   string
	Columns  []string // header order as found in the source
	Records  []Record
	Stats    LoadStats
	LoadedAt time.Time
}

// Len returns the number of records, tolerating a nil Dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// LoadPhase indicates where the single startup load currently is.
type LoadPhase string

const (
	PhaseLoading LoadPhase = "loading"
	PhaseReady   LoadPhase = "ready"
	PhaseFailed  LoadPhase = "failed"
)

// LoadStatus is the loader state exposed on the status endpoint.
type LoadStatus struct {
	Phase     LoadPhase `json:"phase"`
	LoadID    string    `json:"loadId,omitempty"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Stats     LoadStats `json:"stats"`
	ErrorCode string    `json:"errorCode,omitempty"`
	LoadedAt  time.Time `json:"loadedAt,omitzero"`
}

// SortDir is a sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSortDir accepts "asc"/"desc" in any case and reports whether it was valid.
func ParseSortDir(s string) (SortDir, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return SortAsc, true
	case "desc":
		return SortDesc, true
	}
	return "", false
}

// SortSpec represents a single sort column and direction.
type SortSpec struct {
	Column string  `json:"column"`
	Dir    SortDir `json:"dir"`
}

// FilterOperator identifies a filter predicate.
type FilterOperator string

const (
	OpGreaterEq FilterOperator = "gte"
	OpLess      FilterOperator = "lt"
)

// ColumnFilter represents a single filter condition on a column.
// An empty Value disables the filter.
type ColumnFilter struct {
	Column   string         `json:"column"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
}

// FilterSet represents all active filters (combined with AND logic).
type FilterSet struct {
	Filters []ColumnFilter
}

// ViewState is everything the table needs to produce one page:
// sort model, filter model and pagination.
type ViewState struct {
	Sorts    []SortSpec
	Filters  FilterSet
	Page     int // 1-based
	PageSize int
}

// ColumnAggregation holds aggregated values for a numeric column over the
// filtered rows. NaN cells are not counted.
type ColumnAggregation struct {
	Column string   `json:"column"`
	Sum    *float64 `json:"sum,omitempty"`
	Avg    *float64 `json:"avg,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Count  int64    `json:"count"`
}

// Aggregations maps column keys to their aggregation results.
type Aggregations map[string]*ColumnAggregation

// TableDataResult contains one page of sorted, filtered records.
type TableDataResult struct {
	Rows          []Record
	TotalRows     int // records in the snapshot
	FilteredRows  int // records passing the filters
	Page          int
	PageSize      int
	TotalPages    int
	Sorts         []SortSpec
	ActiveFilters []ColumnFilter
	Aggregations  Aggregations
}

// FirstRow returns the 1-based index of the first row on the page, or 0
// when the page is empty.
func (r *TableDataResult) FirstRow() int {
	if len(r.Rows) == 0 {
		return 0
	}
	return (r.Page-1)*r.PageSize + 1
}

// LastRow returns the 1-based index of the last row on the page.
func (r *TableDataResult) LastRow() int {
	if len(r.Rows) == 0 {
		return 0
	}
	return r.FirstRow() + len(r.Rows) - 1
}
