// Package templates renders the dashboard pages as templ components.
//
// Components take plain view data built by the web package; nothing here
// knows about sorting, filtering or the loader. The *_templ.go files are
// generated from the .templ sources with `templ generate`.
package templates

import (
	"slices"
	"strconv"

	"github.com/JonMunkholm/detarget/internal/core"
)

// Embedded player frame size in pixels.
const (
	VideoWidth  = 380
	VideoHeight = 220
)

// videoAllow is the permission list granted to the player frame.
const videoAllow = "accelerometer; autoplay; encrypted-media; gyroscope; picture-in-picture"

// loadingRefresh is the meta refresh interval in seconds while loading.
const loadingRefresh = 2

// ColumnView is one header cell.
type ColumnView struct {
	Key      string
	Label    string
	Width    int
	Numeric  bool
	Sortable bool
	SortDir  core.SortDir // active direction, "" when unsorted
	SortRank int          // 1-based position in the sort model, 0 when unsorted
	SortHref string       // link applying the next direction
}

// CellView is one rendered cell. Text is always escaped on output.
type CellView struct {
	Render   core.RenderKind
	Text     string
	EmbedURL string
	Numeric  bool
}

// RowView is one table row keyed by the record id.
type RowView struct {
	Key   string
	Cells []CellView
}

// OptionView is one <option>.
type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

// FilterFormData drives the filter form above the table.
type FilterFormData struct {
	Action    string
	Hidden    map[string]string
	Column    string
	Label     string
	Operators []OptionView
	Value     string
	ClearHref string
}

// PageSizeLink is one entry of the page-size selector.
type PageSizeLink struct {
	Size   int
	Href   string
	Active bool
}

// PagerData drives the pagination footer.
type PagerData struct {
	Page       int
	TotalPages int
	FirstRow   int
	LastRow    int
	Filtered   int
	Total      int
	PrevHref   string
	NextHref   string
	PageSizes  []PageSizeLink
}

// TablePageData is everything the table page renders.
type TablePageData struct {
	Title      string
	TableKey   string
	Loading    bool
	Columns    []ColumnView
	Rows       []RowView
	Filter     *FilterFormData
	Pager      PagerData
	ResetHref  string
	ExportHref string
}

func (d TablePageData) refresh() int {
	if d.Loading {
		return loadingRefresh
	}
	return 0
}

// rowRange is the "1–25 of 40 (filtered from 90)" pager summary.
func (p PagerData) rowRange() string {
	s := "0 rows"
	if p.Filtered > 0 {
		s = itoa(p.FirstRow) + "–" + itoa(p.LastRow) + " of " + itoa(p.Filtered)
	}
	if p.Filtered != p.Total {
		s += " (filtered from " + itoa(p.Total) + ")"
	}
	return s
}

func (p PagerData) pageOf() string {
	return "Page " + itoa(p.Page) + " of " + itoa(p.TotalPages)
}

func (c ColumnView) ariaSort() string {
	switch c.SortDir {
	case core.SortAsc:
		return "ascending"
	case core.SortDesc:
		return "descending"
	}
	return ""
}

// sortIcon is the arrow shown next to an active sort column.
func (c ColumnView) sortIcon() string {
	switch c.SortDir {
	case core.SortAsc:
		return "▲"
	case core.SortDesc:
		return "▼"
	}
	return ""
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
