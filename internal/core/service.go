package core

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrAlreadyLoaded is returned when Load is called a second time.
var ErrAlreadyLoaded = errors.New("dataset already loaded")

// Service is the entry point for the web layer. It owns the single dataset
// snapshot and answers table queries against it.
//
// The snapshot starts empty and is replaced exactly once, atomically, when
// the startup load finishes. Readers never see a partial dataset.
type Service struct {
	snapshot atomic.Pointer[Dataset]
	status   atomic.Pointer[LoadStatus]
	started  atomic.Bool
}

// NewService creates a Service serving an empty dataset until Load runs.
func NewService(source string) *Service {
	s := &Service{}
	s.snapshot.Store(&Dataset{Source: source})
	s.status.Store(&LoadStatus{Phase: PhaseLoading, Source: source})
	return s
}

// Load runs the loader once and swaps in its dataset. A failed load swaps
// in an empty dataset and marks the status failed; it is not retried.
func (s *Service) Load(ctx context.Context, l *Loader) (LoadResult, error) {
	if !s.started.CompareAndSwap(false, true) {
		return LoadResult{}, ErrAlreadyLoaded
	}

	res := l.Load(ctx)
	if ctx.Err() != nil && res.Err != nil {
		// Shutting down mid-fetch: discard, keep serving what we have.
		return res, nil
	}

	ds := res.Dataset
	st := &LoadStatus{
		Phase:    PhaseReady,
		LoadID:   ds.ID,
		Source:   ds.Source,
		Rows:     ds.Len(),
		Stats:    ds.Stats,
		LoadedAt: ds.LoadedAt,
	}
	if res.Err != nil {
		st.Phase = PhaseFailed
		st.ErrorCode = MapError(res.Err).Code
	}

	s.snapshot.Store(ds)
	s.status.Store(st)
	return res, nil
}

// Snapshot returns the current dataset. Callers must not modify it.
func (s *Service) Snapshot() *Dataset {
	return s.snapshot.Load()
}

// Status returns the loader status.
func (s *Service) Status() LoadStatus {
	return *s.status.Load()
}

// ListTables returns information about all registered tables.
func (s *Service) ListTables() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Table returns a registered table definition.
func (s *Service) Table(tableKey string) (TableDefinition, error) {
	def, ok := Get(tableKey)
	if !ok {
		return TableDefinition{}, errTable(tableKey)
	}
	return def, nil
}

// Record returns the first record with the given id. Duplicate ids are not
// rejected at load; the earliest row in the source wins here.
func (s *Service) Record(tableKey, id string) (*Record, error) {
	if _, err := s.Table(tableKey); err != nil {
		return nil, err
	}
	ds := s.Snapshot()
	for i := range ds.Records {
		if ds.Records[i].ID == id {
			rec := ds.Records[i]
			return &rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

// Age reports how long ago the current snapshot was loaded.
func (s *Service) Age() time.Duration {
	ds := s.Snapshot()
	if ds.LoadedAt.IsZero() {
		return 0
	}
	return time.Since(ds.LoadedAt)
}
