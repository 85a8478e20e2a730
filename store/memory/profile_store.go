package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store"
)

type profileKey struct {
	driver, constructor, course string
	year                        int
}

// ProfileStore is an in-memory implementation of store.ProfileStore.
type ProfileStore struct {
	mu     sync.RWMutex
	data   map[profileKey]*models.Profile
	nextID int
}

// NewProfileStore creates an empty profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{data: make(map[profileKey]*models.Profile)}
}

// UpsertProfile inserts or replaces a profile.
func (s *ProfileStore) UpsertProfile(_ context.Context, p *models.Profile) error {
	if err := store.ValidateProfile(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := profileKey{p.Driver, p.Constructor, p.Course, p.Year}
	cp := *p
	if old, ok := s.data[key]; ok {
		cp.ID = old.ID
	} else {
		s.nextID++
		cp.ID = s.nextID
	}
	s.data[key] = &cp
	p.ID = cp.ID
	return nil
}

// ProfilesForCourse returns the profiles for one course and season.
func (s *ProfileStore) ProfilesForCourse(_ context.Context, course string, year int) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Profile
	for k, p := range s.data {
		if k.course == course && k.year == year {
			out = append(out, *p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Driver != out[j].Driver {
			return out[i].Driver < out[j].Driver
		}
		return out[i].Constructor < out[j].Constructor
	})
	return out, nil
}
