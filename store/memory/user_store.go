package memory

import (
	"context"
	"sync"
	"time"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store"
)

// UserStore is an in-memory implementation of store.UserStore.
type UserStore struct {
	mu     sync.RWMutex
	data   map[string]*models.User // keyed by username
	nextID int
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{data: make(map[string]*models.User)}
}

func (s *UserStore) UpsertUser(_ context.Context, u *models.User) error {
	if err := store.ValidateUser(u); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *u
	if old, ok := s.data[u.Username]; ok {
		cp.ID = old.ID
		cp.CreatedAt = old.CreatedAt
	} else {
		s.nextID++
		cp.ID = s.nextID
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
	}
	s.data[u.Username] = &cp
	u.ID = cp.ID
	return nil
}

func (s *UserStore) User(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.data[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
