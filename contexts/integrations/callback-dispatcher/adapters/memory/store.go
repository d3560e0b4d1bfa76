package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	domainerrors "tally/contexts/integrations/callback-dispatcher/domain/errors"

	"github.com/google/uuid"
)

// Store is the in-memory callback registry used by tests and local wiring.
type Store struct {
	mu        sync.Mutex
	callbacks map[string]entities.Callback
	fixedNow  *time.Time
}

func NewStore() *Store {
	return &Store{callbacks: make(map[string]entities.Callback)}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.fixedNow = &pinned
}

func (s *Store) CreateCallback(_ context.Context, callback entities.Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.callbacks {
		if existing.URL == callback.URL {
			return domainerrors.ErrDuplicate
		}
	}
	s.callbacks[callback.CallbackID] = callback
	return nil
}

func (s *Store) ListCallbacks(context.Context) ([]entities.Callback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Callback, 0, len(s.callbacks))
	for _, callback := range s.callbacks {
		items = append(items, callback)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CallbackID < items[j].CallbackID
	})
	return items, nil
}

func (s *Store) DeleteCallback(_ context.Context, callbackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.callbacks[callbackID]; !found {
		return domainerrors.ErrNotFound
	}
	delete(s.callbacks, callbackID)
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixedNow != nil {
		return *s.fixedNow
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
