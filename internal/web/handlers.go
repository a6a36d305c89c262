package web

import (
	"net/http"
	"net/url"

	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/JonMunkholm/detarget/internal/logging"
	"github.com/JonMunkholm/detarget/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleDashboard renders the first registered table at the site root.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	if len(defs) == 0 {
		respondError(w, r, core.ErrTableNotFound, http.StatusNotFound)
		return
	}
	s.renderTable(w, r, defs[0])
}

// handleTableView renders a table by key.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	def, err := s.service.Table(chi.URLParam(r, "tableKey"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.renderTable(w, r, def)
}

func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, def core.TableDefinition) {
	ctx := r.Context()

	view := parseView(r.URL.Query(), def)
	res, err := s.service.Query(ctx, def.Info.Key, view)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	loading := s.service.Status().Phase == core.PhaseLoading
	data := s.tablePageData(r.URL.Path, def, res, loading)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.TablePage(data).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render table", "table", def.Info.Key, "error", err)
	}
}

// resultView is the normalized view a result was computed with.
func resultView(res *core.TableDataResult) core.ViewState {
	return core.ViewState{
		Sorts:    res.Sorts,
		Filters:  core.FilterSet{Filters: res.ActiveFilters},
		Page:     res.Page,
		PageSize: res.PageSize,
	}
}

// tablePageData turns a query result into template data. Links are built
// against base so the root page keeps linking to itself.
func (s *Server) tablePageData(base string, def core.TableDefinition, res *core.TableDataResult, loading bool) templates.TablePageData {
	view := resultView(res)

	title := def.Info.Title
	if title == "" {
		title = def.Info.Label
	}

	exportView := view
	exportView.Page = 1

	return templates.TablePageData{
		Title:      title,
		TableKey:   def.Info.Key,
		Loading:    loading,
		Columns:    columnViews(base, def, view),
		Rows:       s.rowViews(def, res.Rows),
		Filter:     filterForm(base, def, view),
		Pager:      pager(base, def, view, res),
		ResetHref:  base,
		ExportHref: viewHref("/api/export/"+url.PathEscape(def.Info.Key), exportView),
	}
}

// columnViews builds the header cells. Clicking a header sorts by that
// column alone, moving to its next direction, and returns to page 1.
func columnViews(base string, def core.TableDefinition, view core.ViewState) []templates.ColumnView {
	cols := make([]templates.ColumnView, len(def.Columns))
	for i, c := range def.Columns {
		cv := templates.ColumnView{
			Key:      c.Key,
			Label:    c.Label,
			Width:    c.Width,
			Numeric:  c.Type == core.FieldNumeric,
			Sortable: c.Sortable,
		}
		for rank, sp := range view.Sorts {
			if sp.Column == c.Key {
				cv.SortDir = sp.Dir
				cv.SortRank = rank + 1
				break
			}
		}
		if c.Sortable {
			next := view
			next.Sorts = []core.SortSpec{{Column: c.Key, Dir: c.NextSort(cv.SortDir)}}
			next.Page = 1
			cv.SortHref = viewHref(base, next)
		}
		cols[i] = cv
	}
	// A single sort key needs no rank marker.
	if len(view.Sorts) == 1 {
		for i := range cols {
			cols[i].SortRank = 0
		}
	}
	return cols
}

func (s *Server) rowViews(def core.TableDefinition, records []core.Record) []templates.RowView {
	rows := make([]templates.RowView, len(records))
	for i := range records {
		rec := &records[i]
		cells := make([]templates.CellView, len(def.Columns))
		for j, c := range def.Columns {
			cells[j] = s.cellView(rec, c)
		}
		rows[i] = templates.RowView{Key: rec.ID, Cells: cells}
	}
	return rows
}

func (s *Server) cellView(rec *core.Record, c core.Column) templates.CellView {
	v := rec.Field(c.Key)
	switch c.Render {
	case core.RenderVideo:
		id := v.String()
		return templates.CellView{
			Render:   c.Render,
			Text:     id,
			EmbedURL: s.cfg.View.EmbedBase + url.PathEscape(id),
		}
	case core.RenderWrapped:
		// Free text: escaped on output, never rewritten.
		return templates.CellView{
			Render: c.Render,
			Text:   c.FormatValue(v),
		}
	default:
		return templates.CellView{
			Render:  c.Render,
			Text:    c.FormatValue(v),
			Numeric: c.Type == core.FieldNumeric,
		}
	}
}

// filterForm builds the form for the first column that offers filter
// operators, or nil when no column does.
func filterForm(base string, def core.TableDefinition, view core.ViewState) *templates.FilterFormData {
	var col core.Column
	found := false
	for _, c := range def.Columns {
		if len(c.Operators) > 0 {
			col, found = c, true
			break
		}
	}
	if !found {
		return nil
	}

	current := col.Operators[0].Op
	var value string
	var others []core.ColumnFilter
	for _, f := range view.Filters.Filters {
		if f.Column == col.Key {
			current, value = f.Operator, f.Value
			continue
		}
		others = append(others, f)
	}

	ops := make([]templates.OptionView, len(col.Operators))
	for i, op := range col.Operators {
		ops[i] = templates.OptionView{
			Value:    string(op.Op),
			Label:    op.Label,
			Selected: op.Op == current,
		}
	}

	q := viewQuery(view)
	hidden := map[string]string{}
	for _, name := range []string{"sort", "dir", "size"} {
		if v := q.Get(name); v != "" {
			hidden[name] = v
		}
	}

	cleared := view
	cleared.Filters = core.FilterSet{Filters: others}
	cleared.Page = 1

	return &templates.FilterFormData{
		Action:    base,
		Hidden:    hidden,
		Column:    col.Key,
		Label:     col.Label,
		Operators: ops,
		Value:     value,
		ClearHref: viewHref(base, cleared),
	}
}

func pager(base string, def core.TableDefinition, view core.ViewState, res *core.TableDataResult) templates.PagerData {
	p := templates.PagerData{
		Page:       res.Page,
		TotalPages: res.TotalPages,
		FirstRow:   res.FirstRow(),
		LastRow:    res.LastRow(),
		Filtered:   res.FilteredRows,
		Total:      res.TotalRows,
	}

	if res.Page > 1 {
		prev := view
		prev.Page = res.Page - 1
		p.PrevHref = viewHref(base, prev)
	}
	if res.Page < res.TotalPages {
		next := view
		next.Page = res.Page + 1
		p.NextHref = viewHref(base, next)
	}

	for _, size := range def.PageSizes {
		sized := view
		sized.PageSize = size
		sized.Page = 1
		p.PageSizes = append(p.PageSizes, templates.PageSizeLink{
			Size:   size,
			Href:   viewHref(base, sized),
			Active: size == res.PageSize,
		})
	}
	return p
}
