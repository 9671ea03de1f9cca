package session

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	values    Values
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !now.Before(i.expiresAt)
}

// MemoryStore is a process-local Store. Sessions do not survive a restart
// and are not shared between instances.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: map[string]memoryItem{},
		now:   time.Now,
	}
}

// Load returns a copy of the values stored under id.
func (s *MemoryStore) Load(_ context.Context, id string) (Values, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if item.expired(s.now()) {
		s.mu.Lock()
		// A Save may have replaced the item since the read lock was released.
		if current, ok := s.items[id]; ok && current.expired(s.now()) {
			delete(s.items, id)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	return item.values.clone(), nil
}

// Save stores a copy of values under id for ttl. Expired sessions of other
// ids are dropped on the way.
func (s *MemoryStore) Save(_ context.Context, id string, values Values, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, item := range s.items {
		if item.expired(now) {
			delete(s.items, key)
		}
	}

	s.items[id] = memoryItem{
		values:    values.clone(),
		expiresAt: now.Add(ttl),
	}

	return nil
}

// Delete forgets id. Deleting an unknown id is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)

	return nil
}
