package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/JonMunkholm/detarget/internal/logging"
	"github.com/go-chi/chi/v5"
)

// exportFlushInterval is how many rows are written between flushes.
const exportFlushInterval = 1000

// handleExport streams the filtered, sorted rows of a view as CSV,
// ignoring pagination. NaN cells are written empty.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableKey := chi.URLParam(r, "tableKey")

	def, err := s.service.Table(tableKey)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	// Reject a bad view before any CSV is written, the status can't change after.
	view := parseView(r.URL.Query(), def)
	if _, err := def.NormalizeView(view); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if err := s.exports.Acquire(ctx); err != nil {
		if errors.Is(err, core.ErrTooManyExports) {
			w.Header().Set("Retry-After", "5")
		}
		respondError(w, r, err, statusFor(err))
		return
	}
	defer s.exports.Release()

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.csv", tableKey, timestamp)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(exportHeader(def)); err != nil {
		return
	}

	rowCount := 0
	err = s.service.StreamTableData(ctx, tableKey, view, func(rec *core.Record) error {
		row := make([]string, len(def.Columns))
		for i, c := range def.Columns {
			row[i] = exportCell(rec.Field(c.Key))
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}

		rowCount++
		if rowCount%exportFlushInterval == 0 {
			csvWriter.Flush()
			if err := csvWriter.Error(); err != nil {
				return err
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		return nil
	})
	csvWriter.Flush()

	logger := logging.FromContext(ctx)
	if err != nil && !errors.Is(err, ctx.Err()) {
		// Headers are already sent; all we can do is log.
		logger.Error("export failed", "table", tableKey, "rows", rowCount, "error", err)
		return
	}
	logger.Info("export complete", "table", tableKey, "rows", rowCount)
}

// exportHeader is the CSV header: the column keys, so an export can be
// loaded again as a source.
func exportHeader(def core.TableDefinition) []string {
	keys := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		keys[i] = c.Key
	}
	return keys
}

// exportCell writes numbers unrounded and NaN as an empty cell.
func exportCell(v core.Value) string {
	if v.IsNaN() {
		return ""
	}
	return v.String()
}
