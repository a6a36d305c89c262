package web

import (
	"math"
	"net/http"

	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/go-chi/chi/v5"
)

type operatorJSON struct {
	Op     core.FilterOperator `json:"op"`
	Label  string              `json:"label"`
	Symbol string              `json:"symbol"`
}

type columnJSON struct {
	Key          string         `json:"key"`
	Label        string         `json:"label"`
	Width        int            `json:"width"`
	Type         string         `json:"type"`
	Render       string         `json:"render"`
	Sortable     bool           `json:"sortable"`
	SortingOrder []core.SortDir `json:"sortingOrder,omitempty"`
	Operators    []operatorJSON `json:"operators,omitempty"`
}

type viewJSON struct {
	Sorts    []core.SortSpec     `json:"sorts"`
	Filters  []core.ColumnFilter `json:"filters"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

type tableJSON struct {
	core.TableInfo
	Columns   []columnJSON `json:"columns"`
	PageSizes []int        `json:"pageSizes"`
	Default   viewJSON     `json:"defaultView"`
}

// recordJSON is a record with NaN numbers encoded as null.
type recordJSON struct {
	ID          string            `json:"id"`
	GenderMale  *float64          `json:"gender_male"`
	Impressions *float64          `json:"impressions"`
	Reason      string            `json:"reason"`
	Line        int               `json:"line"`
	Extra       map[string]string `json:"extra,omitempty"`
}

type pageJSON struct {
	Table        string            `json:"table"`
	Rows         []recordJSON      `json:"rows"`
	TotalRows    int               `json:"totalRows"`
	FilteredRows int               `json:"filteredRows"`
	Page         int               `json:"page"`
	PageSize     int               `json:"pageSize"`
	TotalPages   int               `json:"totalPages"`
	View         viewJSON          `json:"view"`
	Aggregations core.Aggregations `json:"aggregations"`
}

type statusJSON struct {
	core.LoadStatus
	AgeSeconds float64                  `json:"ageSeconds"`
	Exports    core.ExportLimiterStatus `json:"exports"`
}

func toViewJSON(v core.ViewState) viewJSON {
	out := viewJSON{
		Sorts:    v.Sorts,
		Filters:  v.Filters.Filters,
		Page:     v.Page,
		PageSize: v.PageSize,
	}
	if out.Sorts == nil {
		out.Sorts = []core.SortSpec{}
	}
	if out.Filters == nil {
		out.Filters = []core.ColumnFilter{}
	}
	return out
}

func toTableJSON(def core.TableDefinition) tableJSON {
	cols := make([]columnJSON, len(def.Columns))
	for i, c := range def.Columns {
		cj := columnJSON{
			Key:          c.Key,
			Label:        c.Label,
			Width:        c.Width,
			Type:         c.Type.String(),
			Render:       c.Render.String(),
			Sortable:     c.Sortable,
			SortingOrder: c.SortingOrder,
		}
		for _, op := range c.Operators {
			cj.Operators = append(cj.Operators, operatorJSON{Op: op.Op, Label: op.Label, Symbol: op.Symbol})
		}
		cols[i] = cj
	}
	return tableJSON{
		TableInfo: def.Info,
		Columns:   cols,
		PageSizes: def.PageSizes,
		Default:   toViewJSON(def.Default),
	}
}

func numberOrNull(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func toRecordJSON(rec *core.Record) recordJSON {
	out := recordJSON{
		ID:          rec.ID,
		GenderMale:  numberOrNull(rec.GenderMale),
		Impressions: numberOrNull(rec.Impressions),
		Reason:      rec.Reason,
		Line:        rec.Line,
	}
	if len(rec.Extra) > 0 {
		out.Extra = make(map[string]string, len(rec.Extra))
		for k, v := range rec.Extra {
			out.Extra[k] = v.String()
		}
	}
	return out
}

// handleListTables returns all tables with their column metadata.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	out := make([]tableJSON, len(defs))
	for i, def := range defs {
		out[i] = toTableJSON(def)
	}
	writeJSON(w, r, out)
}

// handleRecords returns one page of a table as JSON, using the same query
// parameters as the page.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	tableKey := chi.URLParam(r, "tableKey")
	def, err := s.service.Table(tableKey)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Query(r.Context(), tableKey, parseView(r.URL.Query(), def))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	rows := make([]recordJSON, len(res.Rows))
	for i := range res.Rows {
		rows[i] = toRecordJSON(&res.Rows[i])
	}
	writeJSON(w, r, pageJSON{
		Table:        def.Info.Key,
		Rows:         rows,
		TotalRows:    res.TotalRows,
		FilteredRows: res.FilteredRows,
		Page:         res.Page,
		PageSize:     res.PageSize,
		TotalPages:   res.TotalPages,
		View:         toViewJSON(resultView(res)),
		Aggregations: res.Aggregations,
	})
}

// handleRecord returns the first record with the given id.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Record(chi.URLParam(r, "tableKey"), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, toRecordJSON(rec))
}

// handleStatus reports the loader state, snapshot age and export slots.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, statusJSON{
		LoadStatus: s.service.Status(),
		AgeSeconds: s.service.Age().Seconds(),
		Exports:    s.exports.Status(),
	})
}

// handleHealth is the liveness probe. It does not depend on the load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
