// pkg/store/memstore.go
package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// MemStore is an in-memory Store used by tests and dry-run imports.
type MemStore struct {
	mu        sync.Mutex
	records   map[string]model.CanonicalRecord
	summaries map[string]model.RegionSummary
	locks     map[string]bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records:   make(map[string]model.CanonicalRecord),
		summaries: make(map[string]model.RegionSummary),
		locks:     make(map[string]bool),
	}
}

func (s *MemStore) GetByID(_ context.Context, key string) (*model.CanonicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := rec
	return &copied, nil
}

func (s *MemStore) Upsert(_ context.Context, rec *model.CanonicalRecord) (*model.CanonicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.UpdatedAt = time.Now().UTC()
	s.records[rec.Key()] = *rec
	return rec, nil
}

func (s *MemStore) ListByRegion(_ context.Context, region string) ([]model.CanonicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CanonicalRecord
	for _, rec := range s.records {
		if rec.Region == region {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemeID < out[j].SchemeID })
	return out, nil
}

func (s *MemStore) ListRegions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var regions []string
	for _, rec := range s.records {
		if !seen[rec.Region] {
			seen[rec.Region] = true
			regions = append(regions, rec.Region)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

func (s *MemStore) MaxNumericID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for _, rec := range s.records {
		if n, err := strconv.ParseInt(rec.SchemeID, 10, 64); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (s *MemStore) ReplaceSummary(_ context.Context, summary *model.RegionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary.ComputedAt = time.Now().UTC()
	s.summaries[summary.Region] = *summary
	return nil
}

func (s *MemStore) GetSummary(_ context.Context, region string) (*model.RegionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[region]
	if !ok {
		return nil, ErrNotFound
	}
	copied := summary
	return &copied, nil
}

func (s *MemStore) AcquireImportLock(_ context.Context, table string) (UnlockFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[table] {
		return nil, ErrImportLocked
	}
	s.locks[table] = true
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.locks, table)
	}, nil
}

func (s *MemStore) Close() error {
	return nil
}
