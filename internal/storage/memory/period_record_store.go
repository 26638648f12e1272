package memory

import (
	"context"
	"sort"
	"sync"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/storage"
)

type periodKey struct {
	runID  string
	period int
}

// PeriodRecordStore is an in-memory implementation of storage.PeriodRecordStore.
type PeriodRecordStore struct {
	mu   sync.RWMutex
	data map[periodKey]*domain.PeriodRecord
}

var _ storage.PeriodRecordStore = (*PeriodRecordStore)(nil)

// NewPeriodRecordStore creates a new in-memory period record store.
func NewPeriodRecordStore() *PeriodRecordStore {
	return &PeriodRecordStore{
		data: make(map[periodKey]*domain.PeriodRecord),
	}
}

// InsertBulk adds records atomically. Fails entire batch on any duplicate.
func (s *PeriodRecordStore) InsertBulk(_ context.Context, records []*domain.PeriodRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[periodKey]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RunID == "" || r.PeriodIndex < 1 {
			return storage.ErrInvalidInput
		}
		key := periodKey{runID: r.RunID, period: r.PeriodIndex}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range records {
		copy := *r
		s.data[periodKey{runID: r.RunID, period: r.PeriodIndex}] = &copy
	}
	return nil
}

// GetByRunID returns the series of a run ordered by period_index ASC.
func (s *PeriodRecordStore) GetByRunID(_ context.Context, runID string) ([]*domain.PeriodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.PeriodRecord{}
	for key, r := range s.data {
		if key.runID == runID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PeriodIndex < result[j].PeriodIndex
	})
	return result, nil
}

// CountByRunID returns the number of stored periods of a run.
func (s *PeriodRecordStore) CountByRunID(_ context.Context, runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key := range s.data {
		if key.runID == runID {
			n++
		}
	}
	return n, nil
}
