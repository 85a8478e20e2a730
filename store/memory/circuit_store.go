package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store"
)

// CircuitStore is an in-memory implementation of store.CircuitStore.
type CircuitStore struct {
	mu     sync.RWMutex
	data   map[string]*models.Circuit // keyed by ref
	nextID int
}

// NewCircuitStore creates an empty circuit store.
func NewCircuitStore() *CircuitStore {
	return &CircuitStore{data: make(map[string]*models.Circuit)}
}

func (s *CircuitStore) UpsertCircuit(_ context.Context, c *models.Circuit) error {
	if c == nil || c.Ref == "" || c.Laps < 0 {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	if old, ok := s.data[c.Ref]; ok {
		cp.CircuitID = old.CircuitID
	} else {
		s.nextID++
		cp.CircuitID = s.nextID
	}
	s.data[c.Ref] = &cp
	c.CircuitID = cp.CircuitID
	return nil
}

func (s *CircuitStore) Circuit(_ context.Context, ref string) (*models.Circuit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[ref]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *CircuitStore) Circuits(_ context.Context) ([]models.Circuit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Circuit, 0, len(s.data))
	for _, c := range s.data {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
