package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Fetcher retrieves the scores resource. Implementations live in the
// source package; each call performs one fetch.
type Fetcher interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
	Locator() string
}

// Loader turns a Fetcher into a Dataset. It never fails: any error is
// logged with its error code and yields an empty dataset.
type Loader struct {
	Fetcher  Fetcher
	Timeout  time.Duration
	MaxBytes int64
	Logger   *slog.Logger
}

// LoadResult is a dataset plus the error that emptied it, if any.
type LoadResult struct {
	Dataset *Dataset
	Err     error
}

// Load fetches and parses the resource once.
func (l *Loader) Load(ctx context.Context) LoadResult {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	loadID := uuid.NewString()
	logger = logger.With("load_id", loadID, "source", l.Fetcher.Locator())
	logger.Info("load started")

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	start := time.Now()
	ds, err := l.fetchAndParse(ctx)
	if err != nil {
		msg := MapError(err)
		logger.Error("load failed, serving empty table",
			"error", err,
			"code", msg.Code,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		ds = &Dataset{}
	}

	ds.ID = loadID
	ds.Source = l.Fetcher.Locator()
	ds.LoadedAt = time.Now()
	ds.Stats.Duration = time.Since(start)

	if err == nil {
		logger.Info("load complete",
			"rows", ds.Stats.Rows,
			"blank", ds.Stats.Blank,
			"malformed", ds.Stats.Malformed,
			"nan_scores", ds.Stats.NaNScores,
			"nan_impressions", ds.Stats.NaNImpressions,
			"bytes", ds.Stats.Bytes,
			"duration_ms", ds.Stats.Duration.Milliseconds(),
		)
		if ds.Stats.DuplicateIDs > 0 {
			logger.Warn("duplicate video ids in source", "count", ds.Stats.DuplicateIDs)
		}
	}

	return LoadResult{Dataset: ds, Err: err}
}

func (l *Loader) fetchAndParse(ctx context.Context) (*Dataset, error) {
	rc, err := l.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, counter := WrapForParsing(rc, l.MaxBytes)
	ds, err := ParseRecords(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Fetcher.Locator(), err)
	}
	ds.Stats.Bytes = counter.BytesRead
	return ds, nil
}
