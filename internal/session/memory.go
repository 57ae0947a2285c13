package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in-process. The default backend for dev and
// tests; sessions survive page reloads but not a restart.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: make(map[string]Session),
	}
}

func (s *MemoryStore) Save(ctx context.Context, sess Session) error {
	s.mu.Lock()
	s.m[sess.ID] = sess
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.m[id]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrNotFound
	}

	return sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for id, sess := range s.m {
		if sess.Expired(now) {
			delete(s.m, id)
			removed++
		}
	}

	return removed, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
