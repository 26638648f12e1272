package memory

import (
	"context"
	"sort"
	"sync"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/storage"
)

// SummaryStore is an in-memory implementation of storage.SummaryStore.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TerminalSummary // keyed by run_id
}

var _ storage.SummaryStore = (*SummaryStore)(nil)

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{
		data: make(map[string]*domain.TerminalSummary),
	}
}

// Insert adds a new summary. Returns ErrDuplicateKey if run_id exists.
func (s *SummaryStore) Insert(_ context.Context, sum *domain.TerminalSummary) error {
	if !validSummary(sum) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sum.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *sum
	s.data[sum.RunID] = &copy
	return nil
}

// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
func (s *SummaryStore) InsertBulk(_ context.Context, summaries []*domain.TerminalSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(summaries))
	for _, sum := range summaries {
		if !validSummary(sum) {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[sum.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[sum.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[sum.RunID] = struct{}{}
	}

	for _, sum := range summaries {
		copy := *sum
		s.data[sum.RunID] = &copy
	}
	return nil
}

// GetByRunID retrieves a summary. Returns ErrNotFound if not exists.
func (s *SummaryStore) GetByRunID(_ context.Context, runID string) (*domain.TerminalSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *sum
	return &copy, nil
}

// GetByScenario returns the summaries of a scenario ordered by instrument_id ASC.
func (s *SummaryStore) GetByScenario(_ context.Context, scenarioID string) ([]*domain.TerminalSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TerminalSummary
	for _, sum := range s.data {
		if sum.ScenarioID == scenarioID {
			copy := *sum
			result = append(result, &copy)
		}
	}

	sortSummaries(result)
	return result, nil
}

// GetAll returns every summary ordered by (scenario_id, instrument_id) ASC.
func (s *SummaryStore) GetAll(_ context.Context) ([]*domain.TerminalSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TerminalSummary, 0, len(s.data))
	for _, sum := range s.data {
		copy := *sum
		result = append(result, &copy)
	}

	sortSummaries(result)
	return result, nil
}

func validSummary(s *domain.TerminalSummary) bool {
	return s != nil && s.RunID != "" && s.ScenarioID != "" && s.InstrumentID != ""
}

func sortSummaries(result []*domain.TerminalSummary) {
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key().Less(result[j].Key())
	})
}
