package web

// params.go converts between query strings and core.ViewState.
//
//	sort=gender_male,impressions&dir=desc,desc
//	filter[gender_male]=gte:0.4
//	page=1&size=25
//
// The filter form posts filter_column, filter_op and filter_value instead
// of the bracketed form so it works without JavaScript.

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/detarget/internal/core"
)

// maxSortColumns caps the sort model taken from a URL.
const maxSortColumns = 3

// parseView reads a view from q. An empty query means the table's default
// view; otherwise a missing sort keeps source order and a missing filter
// shows every row.
func parseView(q url.Values, def core.TableDefinition) core.ViewState {
	if len(q) == 0 {
		return def.Default
	}
	return core.ViewState{
		Sorts:    parseSorts(q),
		Filters:  parseFilters(q),
		Page:     parseIntParam(q, "page", 1),
		PageSize: parseIntParam(q, "size", def.Default.PageSize),
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(q url.Values, name string, defaultVal int) int {
	val := q.Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseSorts parses comma-separated sort parameters. Directions are passed
// through as given; NormalizeView treats anything but asc/desc as asc.
func parseSorts(q url.Values) []core.SortSpec {
	sortStr := q.Get("sort")
	if sortStr == "" {
		return nil
	}

	cols := strings.Split(sortStr, ",")
	dirs := strings.Split(q.Get("dir"), ",")

	var sorts []core.SortSpec
	for i, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		var dir core.SortDir
		if i < len(dirs) {
			dir = core.SortDir(strings.TrimSpace(dirs[i]))
		}
		sorts = append(sorts, core.SortSpec{Column: col, Dir: dir})
		if len(sorts) >= maxSortColumns {
			break
		}
	}
	return sorts
}

// parseFilters extracts filter[col]=op:value parameters and the filter
// form fields. A value without an operator keeps an empty operator so
// NormalizeView rejects it instead of silently dropping it.
func parseFilters(q url.Values) core.FilterSet {
	var filters []core.ColumnFilter

	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		col, ok := filterColumn(key)
		if !ok {
			continue
		}
		for _, val := range q[key] {
			op, value, _ := strings.Cut(val, ":")
			filters = append(filters, core.ColumnFilter{
				Column:   col,
				Operator: core.FilterOperator(strings.ToLower(strings.TrimSpace(op))),
				Value:    value,
			})
		}
	}

	if col := strings.TrimSpace(q.Get("filter_column")); col != "" {
		filters = append(filters, core.ColumnFilter{
			Column:   col,
			Operator: core.FilterOperator(strings.ToLower(strings.TrimSpace(q.Get("filter_op")))),
			Value:    q.Get("filter_value"),
		})
	}

	return core.FilterSet{Filters: filters}
}

// filterColumn returns col for a "filter[col]" key.
func filterColumn(key string) (string, bool) {
	if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	col := key[len("filter[") : len(key)-1]
	return col, col != ""
}

// viewQuery encodes v so that parseView reads it back unchanged. page and
// size are always present, which keeps the query non-empty even for a
// view with no sort and no filter.
func viewQuery(v core.ViewState) url.Values {
	q := url.Values{}
	if len(v.Sorts) > 0 {
		cols := make([]string, len(v.Sorts))
		dirs := make([]string, len(v.Sorts))
		for i, s := range v.Sorts {
			cols[i] = s.Column
			dirs[i] = string(s.Dir)
		}
		q.Set("sort", strings.Join(cols, ","))
		q.Set("dir", strings.Join(dirs, ","))
	}
	for _, f := range v.Filters.Filters {
		q.Add("filter["+f.Column+"]", string(f.Operator)+":"+f.Value)
	}
	q.Set("page", strconv.Itoa(max(v.Page, 1)))
	if v.PageSize > 0 {
		q.Set("size", strconv.Itoa(v.PageSize))
	}
	return q
}

// viewHref returns base with v encoded as its query string.
func viewHref(base string, v core.ViewState) string {
	return base + "?" + viewQuery(v).Encode()
}
