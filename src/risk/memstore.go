package risk

import (
	"context"

	"reversionbot/src/model"
)

// MemoryCounterStore keeps the daily counters in memory. Backtests use it
// so a run never writes into the live risk tables.
type MemoryCounterStore struct {
	days map[string]*model.RiskCounter
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{days: map[string]*model.RiskCounter{}}
}

func (s *MemoryCounterStore) LoadDay(_ context.Context, day string) (*model.RiskCounter, error) {
	counter, ok := s.days[day]
	if !ok {
		return nil, nil
	}
	clone := *counter
	return &clone, nil
}

func (s *MemoryCounterStore) LoadLatest(_ context.Context) (*model.RiskCounter, error) {
	var latest *model.RiskCounter
	for day, counter := range s.days {
		if latest == nil || day > latest.Day {
			latest = counter
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (s *MemoryCounterStore) Save(_ context.Context, counter *model.RiskCounter) error {
	clone := *counter
	s.days[counter.Day] = &clone
	return nil
}
