package core

import (
	"context"
	"fmt"
	"math"
)

func errTable(tableKey string) error {
	return fmt.Errorf("%w: %s", ErrTableNotFound, tableKey)
}

// Query filters, sorts and pages the current snapshot. Pagination is a
// pure slice of the sorted, filtered records; nothing is re-fetched.
func (s *Service) Query(ctx context.Context, tableKey string, view ViewState) (*TableDataResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	def, err := s.Table(tableKey)
	if err != nil {
		return nil, err
	}

	view, err = def.NormalizeView(view)
	if err != nil {
		return nil, err
	}

	ds := s.Snapshot()
	filtered := FilterRecords(ds.Records, def, view.Filters)
	sorted := SortRecords(filtered, def, view.Sorts)

	total := len(sorted)
	totalPages := (total + view.PageSize - 1) / view.PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := view.Page
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * view.PageSize
	end := min(start+view.PageSize, total)

	return &TableDataResult{
		Rows:          sorted[start:end],
		TotalRows:     ds.Len(),
		FilteredRows:  total,
		Page:          page,
		PageSize:      view.PageSize,
		TotalPages:    totalPages,
		Sorts:         view.Sorts,
		ActiveFilters: view.Filters.Filters,
		Aggregations:  aggregate(def, sorted),
	}, nil
}

// StreamTableData calls fn for every record of the view in sorted order,
// ignoring pagination. Used for CSV export.
func (s *Service) StreamTableData(ctx context.Context, tableKey string, view ViewState, fn func(*Record) error) error {
	def, err := s.Table(tableKey)
	if err != nil {
		return err
	}
	view, err = def.NormalizeView(view)
	if err != nil {
		return err
	}

	ds := s.Snapshot()
	rows := SortRecords(FilterRecords(ds.Records, def, view.Filters), def, view.Sorts)
	for i := range rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// aggregate computes sum/avg/min/max over the numeric columns, skipping NaN.
func aggregate(def TableDefinition, rows []Record) Aggregations {
	aggs := make(Aggregations)
	for _, col := range def.Columns {
		if col.Type != FieldNumeric {
			continue
		}
		agg := &ColumnAggregation{Column: col.Key}
		var sum float64
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range rows {
			v := rows[i].Field(col.Key)
			if v.IsNaN() || v.Kind != KindNumber {
				continue
			}
			agg.Count++
			sum += v.Num
			lo = min(lo, v.Num)
			hi = max(hi, v.Num)
		}
		if agg.Count > 0 {
			avg := sum / float64(agg.Count)
			agg.Sum, agg.Avg, agg.Min, agg.Max = &sum, &avg, &lo, &hi
		}
		aggs[col.Key] = agg
	}
	return aggs
}
