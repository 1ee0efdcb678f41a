package storage

import (
	"context"
	"sort"
	"sync"

	"halt/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	censuses    map[string]model.CensusRecord
	results     map[string][]model.MachineResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.censuses = make(map[string]model.CensusRecord)
	s.results = make(map[string][]model.MachineResult)
	return nil
}

func (s *MemoryStore) SaveCensus(_ context.Context, census model.CensusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.censuses[census.ID] = census
	return nil
}

func (s *MemoryStore) GetCensus(_ context.Context, id string) (model.CensusRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	census, ok := s.censuses[id]
	return census, ok, nil
}

func (s *MemoryStore) ListCensuses(_ context.Context) ([]model.CensusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CensusRecord, 0, len(s.censuses))
	for _, census := range s.censuses {
		out = append(out, census)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	return out, nil
}

func (s *MemoryStore) SaveMachineResults(_ context.Context, censusID string, results []model.MachineResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[censusID] = append([]model.MachineResult(nil), results...)
	return nil
}

func (s *MemoryStore) GetMachineResults(_ context.Context, censusID string) ([]model.MachineResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, ok := s.results[censusID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.MachineResult(nil), results...), true, nil
}
