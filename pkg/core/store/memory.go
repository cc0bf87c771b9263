package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"company_valuation/pkg/core/scenario"
)

// MemoryStore implements ValuationStore and ScenarioStore in process.
// Used when no DATABASE_URL is configured, and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	valuations map[string]*Valuation
	scenarios  map[string]map[string]*StoredScenario // valuation_id -> name -> scenario
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		valuations: make(map[string]*Valuation),
		scenarios:  make(map[string]map[string]*StoredScenario),
	}
}

var (
	_ ValuationStore = (*MemoryStore)(nil)
	_ ScenarioStore  = (*MemoryStore)(nil)
)

// Save stores a deep copy of the valuation.
func (s *MemoryStore) Save(_ context.Context, v *Valuation) error {
	if v == nil || v.Model == nil {
		return ErrInvalidInput
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	cp, err := deepCopy(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.valuations[v.ID] = cp
	return nil
}

// Get returns a copy of the valuation. Returns ErrNotFound if not exists.
func (s *MemoryStore) Get(_ context.Context, id string) (*Valuation, error) {
	s.mu.RLock()
	v, ok := s.valuations[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(v)
}

// Upsert replaces any scenario with the same (valuationID, name).
func (s *MemoryStore) Upsert(_ context.Context, valuationID string, position int, sc *scenario.GeneratedScenario) error {
	if err := validateScenario(valuationID, sc); err != nil {
		return err
	}
	cp, err := deepCopy(sc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byName, ok := s.scenarios[valuationID]
	if !ok {
		byName = make(map[string]*StoredScenario)
		s.scenarios[valuationID] = byName
	}
	byName[sc.Name] = &StoredScenario{
		ValuationID:       valuationID,
		Position:          position,
		GeneratedScenario: *cp,
		UpdatedAt:         time.Now().UTC(),
	}
	return nil
}

// ListByValuation returns copies ordered by position, then name.
func (s *MemoryStore) ListByValuation(_ context.Context, valuationID string) ([]*StoredScenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*StoredScenario, 0, len(s.scenarios[valuationID]))
	for _, sc := range s.scenarios[valuationID] {
		cp, err := deepCopy(sc)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// deepCopy round-trips through JSON, matching what the Postgres repos hand back.
func deepCopy[T any](v *T) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("copy record: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy record: %w", err)
	}
	return &out, nil
}
