package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrEmptyResource is returned when the resource has no header row.
var ErrEmptyResource = errors.New("empty file")

// ErrInvalidCSV marks a structural problem with the resource as a whole.
var ErrInvalidCSV = errors.New("invalid csv")

// ParseRecords reads a header-delimited resource into a Dataset.
//
// The first row is the header. Blank rows are skipped. Rows whose column
// count differs from the header, or that the CSV reader cannot parse, are
// skipped and counted as malformed. Any other read error fails the parse.
// gender_male and impressions are coerced with ToNumber; every other
// column stays text.
func ParseRecords(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyResource
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: read header: %v", ErrInvalidCSV, err)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = CleanCell(h)
	}
	idx := MakeHeaderIndex(columns)
	if _, ok := idx[ColID]; !ok {
		return nil, fmt.Errorf("%w: missing required column %q", ErrInvalidCSV, ColID)
	}

	ds := &Dataset{Columns: columns}
	seen := make(map[string]struct{})

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				ds.Stats.Malformed++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}

		line, _ := reader.FieldPos(0)

		if isBlankRow(row) {
			ds.Stats.Blank++
			continue
		}
		if len(row) != len(columns) {
			ds.Stats.Malformed++
			continue
		}

		rec := buildRecord(row, columns, idx)
		rec.Line = line

		if math.IsNaN(rec.GenderMale) {
			ds.Stats.NaNScores++
		}
		if math.IsNaN(rec.Impressions) {
			ds.Stats.NaNImpressions++
		}
		if _, dup := seen[rec.ID]; dup {
			ds.Stats.DuplicateIDs++
		} else {
			seen[rec.ID] = struct{}{}
		}

		ds.Records = append(ds.Records, rec)
	}

	ds.Stats.Rows = len(ds.Records)
	return ds, nil
}

func buildRecord(row, columns []string, idx HeaderIndex) Record {
	rec := Record{
		ID:          strings.TrimSpace(idx.Cell(row, ColID)),
		GenderMale:  ToNumber(idx.Cell(row, ColGenderMale)),
		Impressions: ToNumber(idx.Cell(row, ColImpressions)),
		Reason:      idx.Cell(row, ColReason),
	}

	for i, name := range columns {
		key := strings.ToLower(name)
		switch key {
		case ColID, ColGenderMale, ColImpressions, ColReason:
			continue
		}
		if idx[key] != i {
			continue // repeated header, first occurrence already kept
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]Value)
		}
		rec.Extra[key] = StringValue(row[i])
	}
	return rec
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
