package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store"
)

// RunStore is an in-memory implementation of store.RunStore.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]*models.SimulationRun
	laps  map[string][]models.LapRecord
	order []string // insertion order
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*models.SimulationRun),
		laps: make(map[string][]models.LapRecord),
	}
}

func (s *RunStore) SaveRun(_ context.Context, run *models.SimulationRun, laps []models.LapRecord) error {
	if run == nil || run.ID == "" {
		return store.ErrInvalidInput
	}
	for _, l := range laps {
		if l.RunID != run.ID {
			return store.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return store.ErrDuplicateKey
	}

	s.runs[run.ID] = copyRun(run)
	s.laps[run.ID] = append([]models.LapRecord(nil), laps...)
	s.order = append(s.order, run.ID)
	return nil
}

func (s *RunStore) Run(_ context.Context, id string) (*models.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyRun(r), nil
}

func (s *RunStore) Runs(_ context.Context, limit int) ([]models.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SimulationRun, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, *copyRun(s.runs[s.order[i]]))
	}
	return out, nil
}

func (s *RunStore) Laps(_ context.Context, runID string) ([]models.LapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	laps, ok := s.laps[runID]
	if !ok {
		return nil, store.ErrNotFound
	}

	out := append([]models.LapRecord(nil), laps...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Lap != out[j].Lap {
			return out[i].Lap < out[j].Lap
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func copyRun(r *models.SimulationRun) *models.SimulationRun {
	cp := *r
	cp.Standings = append([]byte(nil), r.Standings...)
	cp.Sources = maps.Clone(r.Sources)
	return &cp
}
