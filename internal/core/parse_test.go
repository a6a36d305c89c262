package core

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRecords(t *testing.T) {
	input := strings.Join([]string{
		"id,gender_male,impressions,reason",
		"A,0.5,100,mostly female audience",
		"",
		"B,0.5,50,\"quoted, with comma\"",
		"C,,9999,empty score",
		"D,abc,,bad score and empty impressions",
		" , , , ",
		"E,0.9",
		"F,0.1,10,x,extra",
	}, "\n")

	ds, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseRecords() error: %v", err)
	}

	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, ids(ds.Records)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	wantStats := LoadStats{Rows: 4, Blank: 1, Malformed: 2, NaNScores: 2, NaNImpressions: 1}
	if diff := cmp.Diff(wantStats, ds.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	a := ds.Records[0]
	if a.GenderMale != 0.5 || a.Impressions != 100 || a.Reason != "mostly female audience" {
		t.Errorf("record A = %+v", a)
	}
	if a.Line != 2 {
		t.Errorf("record A line = %d, want 2", a.Line)
	}
	if ds.Records[1].Reason != "quoted, with comma" {
		t.Errorf("record B reason = %q", ds.Records[1].Reason)
	}
	if !math.IsNaN(ds.Records[2].GenderMale) {
		t.Errorf("empty score = %v, want NaN", ds.Records[2].GenderMale)
	}
	if ds.Records[2].GenderMale == 0 {
		t.Error("empty score must not coerce to zero")
	}
	if !math.IsNaN(ds.Records[3].GenderMale) || !math.IsNaN(ds.Records[3].Impressions) {
		t.Errorf("record D = %+v, want NaN score and impressions", ds.Records[3])
	}
}

func TestParseRecords_NumericFieldsNeverText(t *testing.T) {
	input := "id,gender_male,impressions\nA,0.4,1\nB,x,y\nC,,\n"
	ds, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseRecords() error: %v", err)
	}
	for _, r := range ds.Records {
		for _, key := range []string{ColGenderMale, ColImpressions} {
			if k := r.Field(key).Kind; k != KindNumber && k != KindNaN {
				t.Errorf("%s.%s kind = %v, want number or NaN", r.ID, key, k)
			}
		}
	}
}

func TestParseRecords_Header(t *testing.T) {
	t.Run("case insensitive and extra columns", func(t *testing.T) {
		input := "\"ID\",Gender_Male,Impressions,Reason,Channel\nA,0.5,1,r,tv\n"
		ds, err := ParseRecords(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseRecords() error: %v", err)
		}
		r := ds.Records[0]
		if r.ID != "A" || r.GenderMale != 0.5 {
			t.Errorf("record = %+v", r)
		}
		if got := r.Field("channel").String(); got != "tv" {
			t.Errorf("extra channel = %q, want tv", got)
		}
		if diff := cmp.Diff([]string{"ID", "Gender_Male", "Impressions", "Reason", "Channel"}, ds.Columns); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing optional columns", func(t *testing.T) {
		ds, err := ParseRecords(strings.NewReader("id\nA\n"))
		if err != nil {
			t.Fatalf("ParseRecords() error: %v", err)
		}
		if !math.IsNaN(ds.Records[0].GenderMale) {
			t.Errorf("score = %v, want NaN", ds.Records[0].GenderMale)
		}
	})

	t.Run("missing id column", func(t *testing.T) {
		_, err := ParseRecords(strings.NewReader("gender_male\n0.5\n"))
		if !errors.Is(err, ErrInvalidCSV) {
			t.Errorf("err = %v, want ErrInvalidCSV", err)
		}
	})

	t.Run("empty resource", func(t *testing.T) {
		_, err := ParseRecords(strings.NewReader(""))
		if !errors.Is(err, ErrEmptyResource) {
			t.Errorf("err = %v, want ErrEmptyResource", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		ds, err := ParseRecords(strings.NewReader("id,gender_male\n"))
		if err != nil {
			t.Fatalf("ParseRecords() error: %v", err)
		}
		if ds.Len() != 0 {
			t.Errorf("Len() = %d, want 0", ds.Len())
		}
	})
}

func TestParseRecords_DuplicateIDs(t *testing.T) {
	input := "id,gender_male\nA,0.5\nA,0.6\nB,0.1\n"
	ds, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseRecords() error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (duplicates kept)", ds.Len())
	}
	if ds.Stats.DuplicateIDs != 1 {
		t.Errorf("DuplicateIDs = %d, want 1", ds.Stats.DuplicateIDs)
	}
}

func TestParseRecords_MalformedQuote(t *testing.T) {
	input := "id,gender_male\nA,0.5\nB,\"0.6\"x\nC,0.7\n"
	ds, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseRecords() error: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "C"}, ids(ds.Records)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if ds.Stats.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", ds.Stats.Malformed)
	}
}

func TestParseRecords_Idempotent(t *testing.T) {
	input := "id,gender_male,impressions\nA,0.5,100\nB,,50\nC,0.2,9999\n"

	first, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(first.Records, second.Records, cmp.Comparer(sameFloat)); diff != "" {
		t.Errorf("reload differs (-first +second):\n%s", diff)
	}
}

// sameFloat treats NaN as equal to NaN.
func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
