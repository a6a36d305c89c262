package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoader_Load(t *testing.T) {
	var logs bytes.Buffer
	l := &Loader{
		Fetcher: &stubFetcher{body: "\xEF\xBB\xBF" + scenarioCSV + "A,0.1,1,dup\n"},
		Logger:  slog.New(slog.NewJSONHandler(&logs, nil)),
	}

	res := l.Load(context.Background())
	if res.Err != nil {
		t.Fatalf("Load() error: %v", res.Err)
	}

	ds := res.Dataset
	if ds.Len() != 4 || ds.Stats.DuplicateIDs != 1 {
		t.Errorf("Len() = %d, DuplicateIDs = %d", ds.Len(), ds.Stats.DuplicateIDs)
	}
	if ds.Records[0].ID != "A" {
		t.Errorf("first id = %q, BOM not stripped?", ds.Records[0].ID)
	}
	if ds.ID == "" || ds.Source != "stub://scores.csv" || ds.LoadedAt.IsZero() {
		t.Errorf("dataset metadata = %q %q %v", ds.ID, ds.Source, ds.LoadedAt)
	}
	if ds.Stats.Bytes == 0 {
		t.Error("Stats.Bytes = 0")
	}

	out := logs.String()
	for _, want := range []string{`"msg":"load complete"`, `"load_id":"` + ds.ID + `"`, `"msg":"duplicate video ids in source"`} {
		if !strings.Contains(out, want) {
			t.Errorf("logs missing %s:\n%s", want, out)
		}
	}
}

func TestLoader_FailuresYieldEmptyDataset(t *testing.T) {
	tests := []struct {
		name     string
		fetcher  Fetcher
		maxBytes int64
		wantCode string
	}{
		{
			name:     "fetch error",
			fetcher:  &stubFetcher{err: ErrFetchFailed},
			wantCode: "SRC001",
		},
		{
			name:     "empty body",
			fetcher:  &stubFetcher{body: ""},
			wantCode: "FILE005",
		},
		{
			name:     "no id column",
			fetcher:  &stubFetcher{body: "name,score\nx,1\n"},
			wantCode: "FILE002",
		},
		{
			name:     "over size cap",
			fetcher:  &stubFetcher{body: scenarioCSV},
			maxBytes: 10,
			wantCode: "SRC004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			l := &Loader{
				Fetcher:  tt.fetcher,
				MaxBytes: tt.maxBytes,
				Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
			}

			res := l.Load(context.Background())
			if res.Err == nil {
				t.Fatal("Load() error = nil")
			}
			if res.Dataset == nil || res.Dataset.Len() != 0 {
				t.Errorf("dataset = %+v, want empty", res.Dataset)
			}
			if code := MapError(res.Err).Code; code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
			if !strings.Contains(logs.String(), "code="+tt.wantCode) {
				t.Errorf("log missing code:\n%s", logs.String())
			}
		})
	}
}

// blockingFetcher returns a body that never yields data until ctx ends.
type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingFetcher) Locator() string { return "stub://slow" }

func TestLoader_Timeout(t *testing.T) {
	l := &Loader{
		Fetcher: blockingFetcher{},
		Timeout: 10 * time.Millisecond,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	res := l.Load(context.Background())
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", res.Err)
	}
}

func TestServiceLoad_CancelledKeepsLoading(t *testing.T) {
	s := NewService("stub://slow")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, &Loader{Fetcher: blockingFetcher{}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if st := s.Status(); st.Phase != PhaseLoading {
		t.Errorf("phase = %s, want loading (result discarded)", st.Phase)
	}
}
