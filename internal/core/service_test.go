package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// stubFetcher serves a fixed body or error and counts fetches.
type stubFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func (f *stubFetcher) Locator() string { return "stub://scores.csv" }

const scenarioCSV = "id,gender_male,impressions,reason\n" +
	"A,0.5,100,a\n" +
	"B,0.5,50,b\n" +
	"C,0.2,9999,c\n"

func TestQuery_DefaultView(t *testing.T) {
	def := registerScores(t)
	s := serviceWith(rec("A", 0.5, 100), rec("B", 0.5, 50), rec("C", 0.2, 9999))

	res, err := s.Query(context.Background(), testKey, def.Default)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, ids(res.Rows)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.TotalRows != 3 || res.FilteredRows != 2 {
		t.Errorf("TotalRows = %d, FilteredRows = %d, want 3, 2", res.TotalRows, res.FilteredRows)
	}
	if res.Page != 1 || res.PageSize != 25 || res.TotalPages != 1 {
		t.Errorf("page %d size %d pages %d", res.Page, res.PageSize, res.TotalPages)
	}
}

func TestQuery_EmptyScore(t *testing.T) {
	registerScores(t)
	s := serviceWith(rec("A", 0.5, 1), rec("E", nan, 1), rec("C", 0.1, 1))
	ctx := context.Background()

	for _, op := range []FilterOperator{OpGreaterEq, OpLess} {
		res, err := s.Query(ctx, testKey, ViewState{Filters: scoreFilter(op, "0.4")})
		if err != nil {
			t.Fatalf("Query(%s) error: %v", op, err)
		}
		for _, r := range res.Rows {
			if r.ID == "E" {
				t.Errorf("filter %s kept the empty-score row", op)
			}
		}
	}

	for _, dir := range []SortDir{SortAsc, SortDesc} {
		res, err := s.Query(ctx, testKey, ViewState{Sorts: []SortSpec{{ColGenderMale, dir}}})
		if err != nil {
			t.Fatalf("Query(%s) error: %v", dir, err)
		}
		if last := res.Rows[len(res.Rows)-1].ID; last != "E" {
			t.Errorf("sort %s: last = %s, want E", dir, last)
		}
	}
}

func TestQuery_PageSizeChangeKeepsOrder(t *testing.T) {
	def := registerScores(t)

	var records []Record
	for i := range 30 {
		// Scores 0.40..0.98 shuffled by a stride so source order differs
		// from sorted order.
		j := (i * 7) % 30
		records = append(records, rec(fmt.Sprintf("v%02d", j), 0.4+float64(j)*0.02, float64(i)))
	}
	s := serviceWith(records...)
	ctx := context.Background()

	view := def.Default
	full, err := s.Query(ctx, testKey, view)
	if err != nil {
		t.Fatal(err)
	}
	if full.FilteredRows != 30 || len(full.Rows) != 25 {
		t.Fatalf("FilteredRows = %d, rows = %d, want 30, 25", full.FilteredRows, len(full.Rows))
	}

	view.PageSize = 10
	small, err := s.Query(ctx, testKey, view)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ids(full.Rows[:10]), ids(small.Rows)); diff != "" {
		t.Errorf("first page differs after page size change (-25 +10):\n%s", diff)
	}
	if small.TotalPages != 3 || small.FirstRow() != 1 || small.LastRow() != 10 {
		t.Errorf("pages %d rows %d-%d, want 3 and 1-10", small.TotalPages, small.FirstRow(), small.LastRow())
	}

	view.Page = 3
	last, err := s.Query(ctx, testKey, view)
	if err != nil {
		t.Fatal(err)
	}
	if len(last.Rows) != 10 || last.FirstRow() != 21 {
		t.Errorf("page 3 has %d rows starting at %d", len(last.Rows), last.FirstRow())
	}

	view.Page = 99
	clamped, err := s.Query(ctx, testKey, view)
	if err != nil {
		t.Fatal(err)
	}
	if clamped.Page != 3 {
		t.Errorf("Page = %d, want clamp to 3", clamped.Page)
	}
}

func TestQuery_Errors(t *testing.T) {
	registerScores(t)
	s := serviceWith(rec("A", 0.5, 1))
	ctx := context.Background()

	tests := []struct {
		name     string
		table    string
		view     ViewState
		sentinel error
	}{
		{"unknown table", "nope", ViewState{}, ErrTableNotFound},
		{"unknown sort column", testKey, ViewState{Sorts: []SortSpec{{"x", SortAsc}}}, ErrUnknownColumn},
		{"unknown filter column", testKey, ViewState{Filters: FilterSet{Filters: []ColumnFilter{{Column: "x", Operator: OpLess, Value: "1"}}}}, ErrUnknownColumn},
		{"operator on unfiltered column", testKey, ViewState{Filters: FilterSet{Filters: []ColumnFilter{{Column: ColImpressions, Operator: OpLess, Value: "1"}}}}, ErrUnsupportedOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Query(ctx, tt.table, tt.view)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestQuery_EmptyDataset(t *testing.T) {
	def := registerScores(t)
	s := NewService("stub")

	res, err := s.Query(context.Background(), testKey, def.Default)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(res.Rows) != 0 || res.TotalPages != 1 || res.Page != 1 {
		t.Errorf("rows %d pages %d page %d", len(res.Rows), res.TotalPages, res.Page)
	}
	if res.FirstRow() != 0 || res.LastRow() != 0 {
		t.Errorf("FirstRow/LastRow = %d/%d, want 0/0", res.FirstRow(), res.LastRow())
	}
}

func TestQuery_Aggregations(t *testing.T) {
	registerScores(t)
	s := serviceWith(rec("A", 0.2, 10), rec("B", 0.6, nan), rec("C", nan, 30))

	res, err := s.Query(context.Background(), testKey, ViewState{})
	if err != nil {
		t.Fatal(err)
	}
	score := res.Aggregations[ColGenderMale]
	if score.Count != 2 || *score.Min != 0.2 || *score.Max != 0.6 {
		t.Errorf("score agg = count %d min %v max %v", score.Count, *score.Min, *score.Max)
	}
	imp := res.Aggregations[ColImpressions]
	if imp.Count != 2 || *imp.Sum != 40 || *imp.Avg != 20 {
		t.Errorf("impressions agg = count %d sum %v avg %v", imp.Count, *imp.Sum, *imp.Avg)
	}
	if _, ok := res.Aggregations[ColReason]; ok {
		t.Error("text column should not be aggregated")
	}
}

func TestStreamTableData(t *testing.T) {
	def := registerScores(t)
	s := serviceWith(rec("C", 0.2, 9999), rec("B", 0.5, 50), rec("A", 0.5, 100))

	var got []string
	err := s.StreamTableData(context.Background(), testKey, def.Default, func(r *Record) error {
		got = append(got, r.ID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, got); diff != "" {
		t.Errorf("export order mismatch (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	err = s.StreamTableData(context.Background(), testKey, ViewState{}, func(*Record) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("err = %v, want callback error", err)
	}
}

func TestServiceRecord(t *testing.T) {
	registerScores(t)
	s := serviceWith(rec("A", 0.1, 1), rec("A", 0.9, 2), rec("B", 0.5, 1))

	r, err := s.Record(testKey, "A")
	if err != nil {
		t.Fatal(err)
	}
	if r.GenderMale != 0.1 {
		t.Errorf("duplicate id lookup returned score %v, want first row 0.1", r.GenderMale)
	}

	if _, err := s.Record(testKey, "Z"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
	if _, err := s.Record("nope", "A"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("err = %v, want ErrTableNotFound", err)
	}
}

func TestServiceLoad(t *testing.T) {
	registerScores(t)
	f := &stubFetcher{body: scenarioCSV}
	s := NewService(f.Locator())

	if st := s.Status(); st.Phase != PhaseLoading {
		t.Errorf("initial phase = %s, want loading", st.Phase)
	}
	if n := s.Snapshot().Len(); n != 0 {
		t.Errorf("initial snapshot has %d rows, want 0", n)
	}

	res, err := s.Load(context.Background(), &Loader{Fetcher: f})
	if err != nil || res.Err != nil {
		t.Fatalf("Load() = %v, %v", err, res.Err)
	}

	st := s.Status()
	if st.Phase != PhaseReady || st.Rows != 3 || st.LoadID == "" {
		t.Errorf("status = %+v", st)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, ids(s.Snapshot().Records)); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Load(context.Background(), &Loader{Fetcher: f}); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("second Load err = %v, want ErrAlreadyLoaded", err)
	}
	if f.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", f.calls)
	}
}

func TestServiceLoad_Failure(t *testing.T) {
	registerScores(t)
	f := &stubFetcher{err: fmt.Errorf("open: %w", ErrResourceNotFound)}
	s := NewService(f.Locator())

	res, err := s.Load(context.Background(), &Loader{Fetcher: f})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !errors.Is(res.Err, ErrResourceNotFound) {
		t.Errorf("res.Err = %v, want ErrResourceNotFound", res.Err)
	}

	st := s.Status()
	if st.Phase != PhaseFailed || st.ErrorCode != "SRC002" {
		t.Errorf("status = %+v, want failed SRC002", st)
	}

	// The page still renders, just empty.
	out, err := s.Query(context.Background(), testKey, ViewState{})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(out.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(out.Rows))
	}
}

func TestServiceLoad_Idempotent(t *testing.T) {
	registerScores(t)

	load := func() []Record {
		s := NewService("stub")
		res, err := s.Load(context.Background(), &Loader{Fetcher: &stubFetcher{body: scenarioCSV}})
		if err != nil || res.Err != nil {
			t.Fatalf("Load() = %v, %v", err, res.Err)
		}
		return s.Snapshot().Records
	}

	if diff := cmp.Diff(load(), load(), cmp.Comparer(sameFloat)); diff != "" {
		t.Errorf("reload differs (-first +second):\n%s", diff)
	}
}

func TestServiceConcurrentReads(t *testing.T) {
	def := registerScores(t)
	s := NewService("stub")
	f := &stubFetcher{body: scenarioCSV}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				res, err := s.Query(context.Background(), testKey, def.Default)
				if err != nil {
					t.Error(err)
					return
				}
				// Either the empty snapshot or the full one, never partial.
				if n := len(res.Rows); n != 0 && n != 2 {
					t.Errorf("saw %d rows", n)
					return
				}
			}
		}()
	}

	if _, err := s.Load(context.Background(), &Loader{Fetcher: f}); err != nil {
		t.Fatal(err)
	}
	wg.Wait()
}
