package history

import (
	"context"
	"sync"

	domain "github.com/example/calculator-demo/domain/calculation"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	calcs []domain.Calculation
	steps map[string][]domain.Step
	mu    sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		steps: make(map[string][]domain.Step),
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, calc *domain.Calculation, steps []domain.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calcs = append(s.calcs, *calc)
	if len(steps) > 0 {
		s.steps[calc.ID] = append(s.steps[calc.ID], steps...)
	}
	return nil
}

// FindCalculations implements Store.
func (s *MemoryStore) FindCalculations(_ context.Context, filter domain.HistoryFilter) ([]domain.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Calculation, 0, len(s.calcs))
	for i := range s.calcs {
		if filter.Matches(&s.calcs[i]) {
			result = append(result, s.calcs[i])
		}
	}
	filter.Sort(result)
	return result, nil
}

// FindSteps implements Store.
func (s *MemoryStore) FindSteps(_ context.Context, calculationID string) ([]domain.Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Step, len(s.steps[calculationID]))
	copy(result, s.steps[calculationID])
	domain.SortSteps(result)
	return result, nil
}

// FindLatest implements Store.
func (s *MemoryStore) FindLatest(_ context.Context) (*domain.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.calcs) == 0 {
		return nil, ErrNotFound
	}
	latest := s.calcs[0]
	for _, c := range s.calcs[1:] {
		if !c.CreatedAt.Before(latest.CreatedAt) {
			latest = c
		}
	}
	return &latest, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
